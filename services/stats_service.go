package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/letsquiz/quiz_api/models"
)

const LeaderboardSize = 5

type QuizStats struct {
	AttemptCount int     `json:"attempts"`
	AverageScore float64 `json:"averageScore"`
}

type QuizWithStats struct {
	models.Quiz
	Attempts     int     `json:"attempts"`
	AverageScore float64 `json:"averageScore"`
}

type LeaderboardAttempt struct {
	Username  string    `json:"username"`
	Score     float64   `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}

type LeaderboardEntry struct {
	QuizID        string               `json:"quizId"`
	Title         string               `json:"title"`
	Category      string               `json:"category"`
	TopAttempts   []LeaderboardAttempt `json:"topAttempts"`
	TotalAttempts int                  `json:"totalAttempts"`
	AverageScore  float64              `json:"averageScore"`
}

// ComputeStats scans every user's attempts for quizID. It does not care
// whether the quiz still exists.
func ComputeStats(users []models.User, quizID string) QuizStats {
	return summarize(collectAttempts(users, quizID))
}

// BuildLeaderboard produces one entry per quiz, in quiz order, including
// quizzes nobody has attempted. Attempts referencing unknown quizzes are
// ignored.
func BuildLeaderboard(quizzes []models.Quiz, users []models.User) []LeaderboardEntry {
	byQuiz := groupAttempts(users)
	entries := make([]LeaderboardEntry, 0, len(quizzes))
	for _, q := range quizzes {
		entries = append(entries, leaderboardEntry(q, byQuiz[q.ID]))
	}
	return entries
}

// TopAttempts orders attempts by score, highest first, keeping the recorded
// order among equal scores, and keeps at most limit of them.
func TopAttempts(attempts []LeaderboardAttempt, limit int) []LeaderboardAttempt {
	sorted := make([]LeaderboardAttempt, len(attempts))
	copy(sorted, attempts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

func RoundScore(v float64) float64 {
	return math.Round(v*10) / 10
}

func leaderboardEntry(q models.Quiz, attempts []LeaderboardAttempt) LeaderboardEntry {
	stats := summarize(attempts)
	return LeaderboardEntry{
		QuizID:        q.ID,
		Title:         q.Title,
		Category:      q.Category,
		TopAttempts:   TopAttempts(attempts, LeaderboardSize),
		TotalAttempts: stats.AttemptCount,
		AverageScore:  stats.AverageScore,
	}
}

func collectAttempts(users []models.User, quizID string) []LeaderboardAttempt {
	var out []LeaderboardAttempt
	for i := range users {
		for _, a := range users[i].AttemptsFor(quizID) {
			out = append(out, LeaderboardAttempt{
				Username:  users[i].Username,
				Score:     a.Score,
				Timestamp: a.DateTaken,
			})
		}
	}
	return out
}

func groupAttempts(users []models.User) map[string][]LeaderboardAttempt {
	byQuiz := make(map[string][]LeaderboardAttempt)
	for _, u := range users {
		for _, a := range u.Attempts {
			byQuiz[a.QuizID] = append(byQuiz[a.QuizID], LeaderboardAttempt{
				Username:  u.Username,
				Score:     a.Score,
				Timestamp: a.DateTaken,
			})
		}
	}
	return byQuiz
}

func summarize(attempts []LeaderboardAttempt) QuizStats {
	if len(attempts) == 0 {
		return QuizStats{}
	}
	var total float64
	for _, a := range attempts {
		total += a.Score
	}
	return QuizStats{
		AttemptCount: len(attempts),
		AverageScore: RoundScore(total / float64(len(attempts))),
	}
}

type StatsService struct {
	attempts AttemptSource
	quizzes  QuizStore
}

func NewStatsService(attempts AttemptSource, quizzes QuizStore) *StatsService {
	return &StatsService{attempts: attempts, quizzes: quizzes}
}

// StatsForQuiz is recomputed on every call. Callers check that the quiz
// exists; an unknown id simply yields zero stats.
func (s *StatsService) StatsForQuiz(ctx context.Context, quizID string) (QuizStats, error) {
	users, err := s.attempts.UsersWithAttemptsFor(ctx, quizID)
	if err != nil {
		return QuizStats{}, fmt.Errorf("load attempts for quiz %s: %w", quizID, err)
	}
	return ComputeStats(users, quizID), nil
}

func (s *StatsService) WithStats(ctx context.Context, quiz models.Quiz) (QuizWithStats, error) {
	stats, err := s.StatsForQuiz(ctx, quiz.ID)
	if err != nil {
		return QuizWithStats{}, err
	}
	return QuizWithStats{Quiz: quiz, Attempts: stats.AttemptCount, AverageScore: stats.AverageScore}, nil
}

func (s *StatsService) ListQuizzesWithStats(ctx context.Context) ([]QuizWithStats, error) {
	quizzes, err := s.quizzes.ListQuizzes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	users, err := s.attempts.ListUsersWithAttempts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	byQuiz := groupAttempts(users)
	out := make([]QuizWithStats, 0, len(quizzes))
	for _, q := range quizzes {
		stats := summarize(byQuiz[q.ID])
		out = append(out, QuizWithStats{Quiz: q, Attempts: stats.AttemptCount, AverageScore: stats.AverageScore})
	}
	return out, nil
}

func (s *StatsService) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	quizzes, err := s.quizzes.ListQuizzes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	users, err := s.attempts.ListUsersWithAttempts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return BuildLeaderboard(quizzes, users), nil
}

func (s *StatsService) LeaderboardForQuiz(ctx context.Context, quizID string) (LeaderboardEntry, error) {
	quiz, err := s.quizzes.FindQuizByID(ctx, quizID)
	if err != nil {
		return LeaderboardEntry{}, fmt.Errorf("find quiz %s: %w", quizID, err)
	}
	users, err := s.attempts.UsersWithAttemptsFor(ctx, quizID)
	if err != nil {
		return LeaderboardEntry{}, fmt.Errorf("load attempts for quiz %s: %w", quizID, err)
	}
	return leaderboardEntry(*quiz, collectAttempts(users, quizID)), nil
}

func (s *StatsService) OrphanedAttempts(ctx context.Context) (int64, error) {
	return s.attempts.CountOrphanedAttempts(ctx)
}
