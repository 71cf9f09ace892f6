package database

import (
	"context"

	"github.com/letsquiz/quiz_api/models"
	"gorm.io/gorm"
)

// Store is the gorm backed persistence layer. Lookups that find nothing return
// gorm.ErrRecordNotFound.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func orderedAttempts(db *gorm.DB) *gorm.DB {
	return db.Order("attempts.id ASC")
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) FindUserWithAttempts(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Preload("Attempts", orderedAttempts).
		First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Preload("Attempts", orderedAttempts).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Omit("Attempts").Create(user).Error
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Omit("Attempts").Save(user).Error
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.Attempt{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, "id = ?", id).Error
	})
}

func (s *Store) AddAttempt(ctx context.Context, attempt *models.Attempt) error {
	return s.db.WithContext(ctx).Create(attempt).Error
}

// ListUsersWithAttempts returns every user in registration order with their
// attempts in the order they were recorded.
func (s *Store) ListUsersWithAttempts(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Preload("Attempts", orderedAttempts).
		Order("registration_date ASC, id ASC").
		Find(&users).Error
	return users, err
}

// UsersWithAttemptsFor narrows ListUsersWithAttempts to users holding at least
// one attempt on quizID. Their attempt lists are not filtered.
func (s *Store) UsersWithAttemptsFor(ctx context.Context, quizID string) ([]models.User, error) {
	var users []models.User
	db := s.db.WithContext(ctx)
	err := db.
		Preload("Attempts", orderedAttempts).
		Where("id IN (?)", db.Model(&models.Attempt{}).Select("user_id").Where("quiz_id = ?", quizID)).
		Order("registration_date ASC, id ASC").
		Find(&users).Error
	return users, err
}

func (s *Store) CountOrphanedAttempts(ctx context.Context) (int64, error) {
	var count int64
	db := s.db.WithContext(ctx)
	err := db.Model(&models.Attempt{}).
		Where("quiz_id NOT IN (?)", db.Model(&models.Quiz{}).Select("id")).
		Count(&count).Error
	return count, err
}

func (s *Store) ListQuizzes(ctx context.Context) ([]models.Quiz, error) {
	var quizzes []models.Quiz
	err := s.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&quizzes).Error
	return quizzes, err
}

func (s *Store) FindQuizByID(ctx context.Context, id string) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := s.db.WithContext(ctx).First(&quiz, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (s *Store) QuizTitles(ctx context.Context, ids []string) (map[string]string, error) {
	titles := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return titles, nil
	}
	var rows []struct {
		ID    string
		Title string
	}
	err := s.db.WithContext(ctx).Model(&models.Quiz{}).
		Select("id", "title").
		Where("id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		titles[r.ID] = r.Title
	}
	return titles, nil
}

func (s *Store) CreateQuiz(ctx context.Context, quiz *models.Quiz) error {
	return s.db.WithContext(ctx).Create(quiz).Error
}

func (s *Store) UpdateQuiz(ctx context.Context, quiz *models.Quiz) error {
	return s.db.WithContext(ctx).Save(quiz).Error
}

// DeleteQuiz removes the quiz row only. Attempts referencing it are kept.
func (s *Store) DeleteQuiz(ctx context.Context, id string) (int64, error) {
	result := s.db.WithContext(ctx).Delete(&models.Quiz{}, "id = ?", id)
	return result.RowsAffected, result.Error
}
