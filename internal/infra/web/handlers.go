package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"school-management-platform/internal/domain"
	"school-management-platform/internal/domain/model"
)

// ---- request/response shapes ----

type tokenRequest struct {
	TenantID string `json:"tenantId"`
	UserID   string `json:"userId"`
	Role     string `json:"role"`
}

type memberCreateRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type questionPayload struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer,omitempty"`
}

type quizCreateRequest struct {
	MaterialRef     string            `json:"materialRef"`
	Title           string            `json:"title"`
	DurationSeconds int               `json:"durationSeconds"`
	Publish         bool              `json:"publish"`
	Questions       []questionPayload `json:"questions"`
}

type quizView struct {
	ID              string            `json:"id"`
	MaterialRef     string            `json:"materialRef"`
	TeacherID       string            `json:"teacherId"`
	Title           string            `json:"title"`
	DurationSeconds int               `json:"durationSeconds"`
	IsPublished     bool              `json:"isPublished"`
	Questions       []questionPayload `json:"questions"`
	CreatedAt       time.Time         `json:"createdAt"`
}

// toQuizView renders a quiz for clients. Correct answers never leave the
// server; grading happens here, not in the app.
func toQuizView(q *model.Quiz) quizView {
	questions := make([]questionPayload, len(q.Questions))
	for i, question := range q.Questions {
		questions[i] = questionPayload{Text: question.Text, Options: question.Options}
	}
	return quizView{
		ID:              q.ID,
		MaterialRef:     q.MaterialRef,
		TeacherID:       q.TeacherID,
		Title:           q.Title,
		DurationSeconds: int(q.Duration.Seconds()),
		IsPublished:     q.IsPublished,
		Questions:       questions,
		CreatedAt:       q.CreatedAt,
	}
}

type answerPayload struct {
	QuestionIndex  int `json:"questionIndex"`
	SelectedOption int `json:"selectedOption"`
}

type submitRequest struct {
	Answers []answerPayload `json:"answers"`
}

type submissionView struct {
	ID          string    `json:"id"`
	QuizID      string    `json:"quizId"`
	StudentID   string    `json:"studentId"`
	Score       int       `json:"score"`
	Feedback    string    `json:"feedback,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
}

func toSubmissionView(s *model.Submission) submissionView {
	return submissionView{
		ID:          s.ID,
		QuizID:      s.QuizID,
		StudentID:   s.StudentID,
		Score:       s.Score,
		Feedback:    s.Feedback,
		SubmittedAt: s.SubmittedAt,
	}
}

// ---- auth / admin ----

func (s *Server) handleMintToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	token, err := s.auth.Mint(req.TenantID, req.UserID, req.Role)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleRegisterTenant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TenantID string `json:"tenantId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TenantID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	sub, err := s.subUC.Register(r.Context(), req.TenantID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	byStatus, byPlan, err := s.statsUC.Totals(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	week, month, year, err := s.statsUC.Revenue(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	statusCounts := make(map[string]int, len(byStatus))
	for k, v := range byStatus {
		statusCounts[string(k)] = v
	}
	planCounts := make(map[string]int, len(byPlan))
	for k, v := range byPlan {
		planCounts[string(k)] = v
	}

	response := struct {
		SubsByStatus map[string]int `json:"subscriptions_by_status"`
		SubsByPlan   map[string]int `json:"subscriptions_by_plan"`
		Revenue      struct {
			Week  int64 `json:"week"`
			Month int64 `json:"month"`
			Year  int64 `json:"year"`
		} `json:"revenue"`
	}{SubsByStatus: statusCounts, SubsByPlan: planCounts}
	response.Revenue.Week = week
	response.Revenue.Month = month
	response.Revenue.Year = year

	writeJSON(w, http.StatusOK, response)
}

// ---- plan / members ----

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := claimsFrom(ctx)

	plan, err := s.entitleUC.ResolvePlan(ctx, claims.TenantID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	students, staff, err := s.enrollUC.Counts(ctx, claims.TenantID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	features := make([]string, 0, len(plan.Features))
	for f := range plan.Features {
		features = append(features, string(f))
	}
	response := struct {
		Tier     string         `json:"tier"`
		Features []string       `json:"features"`
		Limits   map[string]int `json:"limits"`
		Usage    map[string]int `json:"usage"`
	}{
		Tier:     string(plan.Tier),
		Features: features,
		Limits: map[string]int{
			string(model.ResourceStudents): plan.MaxStudents,
			string(model.ResourceStaff):    plan.MaxStaff,
		},
		Usage: map[string]int{
			string(model.ResourceStudents): students,
			string(model.ResourceStaff):    staff,
		},
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	sub, err := s.subUC.Get(r.Context(), claims.TenantID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	var req memberCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	member, err := s.enrollUC.AddMember(r.Context(), claims.TenantID, req.Name, req.Email, model.MemberRole(req.Role))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, member)
}

// ---- quizzes ----

func (s *Server) handleCreateQuiz(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	var req quizCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	questions := make([]model.Question, len(req.Questions))
	for i, q := range req.Questions {
		questions[i] = model.Question{Text: q.Text, Options: q.Options, CorrectAnswer: q.CorrectAnswer}
	}

	quiz, err := s.quizUC.Create(r.Context(), claims.TenantID, req.MaterialRef, claims.UserID(),
		req.Title, questions, time.Duration(req.DurationSeconds)*time.Second, req.Publish)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toQuizView(quiz))
}

func (s *Server) handleListQuizzes(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	quizzes, err := s.quizUC.ListByTenant(r.Context(), claims.TenantID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	views := make([]quizView, 0, len(quizzes))
	for _, q := range quizzes {
		if claims.Role == RoleStudent && !q.IsPublished {
			continue // drafts are staff-only
		}
		views = append(views, toQuizView(q))
	}
	writeJSON(w, http.StatusOK, struct {
		Data []quizView `json:"data"`
	}{Data: views})
}

// tenantQuiz fetches the quiz and hides other tenants' quizzes behind 404.
func (s *Server) tenantQuiz(w http.ResponseWriter, r *http.Request) (*model.Quiz, bool) {
	claims := claimsFrom(r.Context())
	quiz, err := s.quizUC.Get(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		writeDomainError(w, err)
		return nil, false
	}
	if quiz.TenantID != claims.TenantID {
		writeDomainError(w, domain.ErrNotFound)
		return nil, false
	}
	return quiz, true
}

func (s *Server) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, ok := s.tenantQuiz(w, r)
	if !ok {
		return
	}
	claims := claimsFrom(r.Context())
	if claims.Role == RoleStudent && !quiz.IsPublished {
		writeDomainError(w, domain.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toQuizView(quiz))
}

func (s *Server) handlePublishQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, ok := s.tenantQuiz(w, r)
	if !ok {
		return
	}
	published, err := s.quizUC.Publish(r.Context(), quiz.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuizView(published))
}

// ---- submissions ----

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	quiz, ok := s.tenantQuiz(w, r)
	if !ok {
		return
	}
	claims := claimsFrom(r.Context())

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	answers := make([]model.Answer, len(req.Answers))
	for i, a := range req.Answers {
		answers[i] = model.Answer{QuestionIndex: a.QuestionIndex, SelectedOption: a.SelectedOption}
	}

	sub, err := s.submissionUC.Submit(r.Context(), quiz.ID, claims.UserID(), answers)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSubmissionView(sub))
}

func (s *Server) handleMySubmission(w http.ResponseWriter, r *http.Request) {
	quiz, ok := s.tenantQuiz(w, r)
	if !ok {
		return
	}
	claims := claimsFrom(r.Context())
	sub, err := s.submissionUC.Get(r.Context(), quiz.ID, claims.UserID())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubmissionView(sub))
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	quiz, ok := s.tenantQuiz(w, r)
	if !ok {
		return
	}
	subs, err := s.submissionUC.ListByQuiz(r.Context(), quiz.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	views := make([]submissionView, len(subs))
	for i, sub := range subs {
		views[i] = toSubmissionView(sub)
	}
	writeJSON(w, http.StatusOK, struct {
		Data []submissionView `json:"data"`
	}{Data: views})
}
