package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"billed-backend/logger"
	"billed-backend/models"
	"billed-backend/service"
	"billed-backend/session"
	"billed-backend/store"
	"billed-backend/validators"

	"go.uber.org/zap"
)

func main() {
	api := flag.String("api", "http://localhost:8080", "bills API base URL")
	email := flag.String("email", "", "employee email (required)")
	file := flag.String("file", "", "receipt image (.jpg, .jpeg or .png)")
	expenseType := flag.String("type", "Transports", "expense type")
	name := flag.String("name", "", "expense name")
	amount := flag.String("amount", "", "amount, integer")
	date := flag.String("date", time.Now().Format(validators.DateLayout), "expense date (YYYY-MM-DD)")
	vat := flag.String("vat", "", "VAT amount")
	pct := flag.String("pct", "", "VAT percentage (defaults to 20)")
	commentary := flag.String("commentary", "", "free-form commentary")
	timeout := flag.Duration("timeout", 30*time.Second, "timeout of each API call")
	flag.Parse()

	if *email == "" {
		fmt.Fprintln(os.Stderr, "-email is required")
		flag.Usage()
		os.Exit(2)
	}

	logg, err := logger.NewConsole()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	code := run(logg, *api, *email, *file, *timeout, service.FormSnapshot{
		Type:       *expenseType,
		Name:       *name,
		Amount:     *amount,
		Date:       *date,
		VAT:        *vat,
		Pct:        *pct,
		Commentary: *commentary,
	})
	logg.Sync()
	os.Exit(code)
}

func run(logg *zap.Logger, api, email, file string, timeout time.Duration, form service.FormSnapshot) int {
	ctx := context.Background()

	sessions, err := session.NewMemoryStore(0, logg)
	if err != nil {
		logg.Error("Failed to create session store", zap.Error(err))
		return 1
	}
	if err := session.Save(ctx, sessions, "", models.Session{Email: email, Type: models.UserTypeEmployee}); err != nil {
		logg.Error("Failed to store session", zap.Error(err))
		return 1
	}

	var target string
	workflow := service.NewNewBillWorkflow(
		service.WithBillStore(store.NewHTTPStore(api, nil)),
		service.WithSessionProvider(session.NewProvider(sessions, "")),
		service.WithNavigator(func(path string) { target = path }),
		service.WithLogger(logg),
		service.WithTimeout(timeout),
	)

	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			logg.Error("Failed to open attachment", zap.String("file", file), zap.Error(err))
			return 1
		}
		defer f.Close()

		fileName := filepath.Base(file)
		in := &service.FileInput{Files: []*models.Attachment{{
			Name:        fileName,
			ContentType: validators.ContentTypeFor(fileName),
			Content:     f,
		}}}
		if err := workflow.HandleChangeFile(in); err != nil {
			fmt.Fprintln(os.Stderr, service.InvalidFormatMessage)
			return 1
		}
	}

	bill, err := workflow.Submit(ctx, form)
	if target != "" {
		fmt.Println("navigate:", target)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "submission failed:", err)
		return 1
	}

	fmt.Printf("bill %s submitted (%s, %d, pct %d)\n", bill.ID, bill.Status, bill.Amount, bill.Pct)
	return 0
}
