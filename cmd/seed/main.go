// Command seed provisions a demo tenant with a published quiz so a fresh
// environment has something to poke at.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/rs/zerolog"

	"school-management-platform/internal/config"
	"school-management-platform/internal/domain"
	"school-management-platform/internal/domain/model"
	pg "school-management-platform/internal/infra/db/postgres"
	"school-management-platform/internal/usecase"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	tenantID := flag.String("tenant", "demo-school", "tenant to provision")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	logger := zerolog.Nop()
	subRepo := pg.NewSubscriptionRepo(pool)
	eventRepo := pg.NewBillingEventRepo(pool)
	memberRepo := pg.NewMemberRepo(pool)
	quizRepo := pg.NewQuizRepo(pool)

	subUC := usecase.NewSubscriptionUseCase(subRepo, eventRepo, pg.NewTxManager(pool), &logger)
	entitleUC := usecase.NewEntitlementUseCase(model.DefaultCatalog(), subRepo, memberRepo, &logger)
	enrollUC := usecase.NewEnrollmentUseCase(memberRepo, entitleUC, &logger)
	quizUC := usecase.NewQuizUseCase(quizRepo, &logger)

	// If the tenant already exists, do nothing.
	if _, err := subUC.Get(ctx, *tenantID); err == nil {
		fmt.Printf("tenant %q already present. No changes.\n", *tenantID)
		return
	} else if !errors.Is(err, domain.ErrNotFound) {
		log.Fatalf("lookup tenant: %v", err)
	}

	if _, err := subUC.Register(ctx, *tenantID); err != nil {
		log.Fatalf("register tenant: %v", err)
	}
	fmt.Printf("registered tenant %q on the %s plan\n", *tenantID, model.LowestTier)

	teacher, err := enrollUC.AddMember(ctx, *tenantID, "Demo Teacher", "teacher@example.com", model.RoleStaff)
	if err != nil {
		log.Fatalf("add teacher: %v", err)
	}
	for i := 1; i <= 3; i++ {
		name := fmt.Sprintf("Demo Student %d", i)
		email := fmt.Sprintf("student%d@example.com", i)
		if _, err := enrollUC.AddMember(ctx, *tenantID, name, email, model.RoleStudent); err != nil {
			log.Fatalf("add student: %v", err)
		}
	}
	fmt.Println("enrolled 1 teacher and 3 students")

	questions := []model.Question{
		{Text: "What is 7 x 8?", Options: []string{"54", "56", "63", "64"}, CorrectAnswer: "56"},
		{Text: "Which planet is closest to the sun?", Options: []string{"Venus", "Earth", "Mercury"}, CorrectAnswer: "Mercury"},
		{Text: "What is the chemical symbol for water?", Options: []string{"H2O", "CO2", "NaCl"}, CorrectAnswer: "H2O"},
	}
	quiz, err := quizUC.Create(ctx, *tenantID, "material-demo-1", teacher.ID, "General Knowledge Warm-up", questions, 10*time.Minute, true)
	if err != nil {
		log.Fatalf("create quiz: %v", err)
	}
	fmt.Printf("published quiz %s (%d questions)\n", quiz.ID, len(quiz.Questions))
}
