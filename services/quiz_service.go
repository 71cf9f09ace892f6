package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/letsquiz/quiz_api/models"
	"github.com/letsquiz/quiz_api/utils"
	"gorm.io/gorm"
)

type QuizInput struct {
	Title       string
	Description string
	Category    string
	Questions   []models.Question
}

// QuizUpdate applies only the fields that are set.
type QuizUpdate struct {
	Title       *string
	Description *string
	Category    *string
	Questions   *[]models.Question
}

type QuizService struct {
	quizzes QuizStore
}

func NewQuizService(quizzes QuizStore) *QuizService {
	return &QuizService{quizzes: quizzes}
}

func ValidateID(id string) error {
	if !models.IsValidID(id) {
		e := utils.Validation(utils.CodeMalformedID, "Invalid quiz ID format")
		e.Details = "Invalid ObjectId format"
		return e
	}
	return nil
}

func (s *QuizService) Create(ctx context.Context, in QuizInput, creatorID *string) (*models.Quiz, error) {
	quiz := &models.Quiz{
		ID:          models.NewID(),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Questions:   in.Questions,
		CreatorID:   creatorID,
	}
	if quiz.Questions == nil {
		quiz.Questions = []models.Question{}
	}
	if err := validateQuiz(quiz); err != nil {
		return nil, err
	}

	if err := s.quizzes.CreateQuiz(ctx, quiz); err != nil {
		return nil, utils.Internal("Error creating quiz", err)
	}
	return quiz, nil
}

// Get accepts ids in either hex case; they are stored lowercase.
func (s *QuizService) Get(ctx context.Context, id string) (*models.Quiz, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	quiz, err := s.quizzes.FindQuizByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFound(utils.CodeNotFound, "Quiz not found")
	}
	if err != nil {
		return nil, utils.Internal("Error fetching quiz", err)
	}
	return quiz, nil
}

func (s *QuizService) Update(ctx context.Context, id string, upd QuizUpdate) (*models.Quiz, error) {
	quiz, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		quiz.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.Description != nil {
		quiz.Description = strings.TrimSpace(*upd.Description)
	}
	if upd.Category != nil {
		quiz.Category = strings.TrimSpace(*upd.Category)
	}
	if upd.Questions != nil {
		quiz.Questions = *upd.Questions
		if quiz.Questions == nil {
			quiz.Questions = []models.Question{}
		}
	}
	if err := validateQuiz(quiz); err != nil {
		return nil, err
	}

	if err := s.quizzes.UpdateQuiz(ctx, quiz); err != nil {
		return nil, utils.Internal("Error updating quiz", err)
	}
	return quiz, nil
}

// Delete leaves attempts that reference the quiz in place.
func (s *QuizService) Delete(ctx context.Context, id string) error {
	quiz, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	deleted, err := s.quizzes.DeleteQuiz(ctx, quiz.ID)
	if err != nil {
		return utils.Internal("Error deleting quiz", err)
	}
	if deleted == 0 {
		return utils.NotFound(utils.CodeNotFound, "Quiz not found")
	}
	return nil
}

func validateQuiz(q *models.Quiz) error {
	if q.Title == "" || q.Description == "" || q.Category == "" {
		return utils.Validation(utils.CodeMissingFields, "Title, description and category are required")
	}
	for i, question := range q.Questions {
		if err := validateQuestion(question); err != nil {
			e := utils.Validation(utils.CodeValidationFailed, "Invalid question")
			e.Details = fmt.Sprintf("question %d: %v", i+1, err)
			return e
		}
	}
	return nil
}

func validateQuestion(q models.Question) error {
	if strings.TrimSpace(q.Question) == "" {
		return errors.New("question text is required")
	}
	if len(q.Options) < 2 {
		return errors.New("at least two options are required")
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		return fmt.Errorf("correctAnswer %d out of range", q.CorrectAnswer)
	}
	return nil
}
