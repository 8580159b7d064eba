package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/mouhcinecherqui/devtech-sub000/internal/auth"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		db, err := initGorm(sqlxDB)
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			for _, table := range []string{"notifications", "tickets", "payment_attempts", "users"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		hash, err := auth.HashPassword("password", cfg.Security.BCryptCost)
		if err != nil {
			log.Fatalf("failed to hash seed password: %v", err)
		}

		users := []struct {
			Email string
			Name  string
			Role  string
		}{
			{"amina@mail.com", "Amina", "client"},
			{"youssef@mail.com", "Youssef", "client"},
			{"staff@mail.com", "Desk Staff", "staff"},
		}

		for _, u := range users {
			var exists int
			if err := db.Raw("SELECT 1 FROM users WHERE email = ?", u.Email).Row().Scan(&exists); err == nil {
				fmt.Println("user already exists:", u.Email)
				continue
			}
			if err := db.Exec(
				"INSERT INTO users (email, name, password_hash, role, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, true, now(), now())",
				u.Email, u.Name, hash, u.Role,
			).Error; err != nil {
				log.Fatalf("failed to insert user %s: %v", u.Email, err)
			}
			fmt.Println("Seeded user:", u.Email)
		}

		tickets := []struct {
			Subject   string
			Type      string
			UserEmail string
		}{
			{"Cannot log into my account", "account", "amina@mail.com"},
			{"Invoice missing from last month", "billing", "youssef@mail.com"},
			{"Request priority handling", "general", "amina@mail.com"},
		}

		for _, t := range tickets {
			var exists int
			if err := db.Raw("SELECT 1 FROM tickets WHERE subject = ? AND user_email = ?", t.Subject, t.UserEmail).Row().Scan(&exists); err == nil {
				continue
			}
			if err := db.Exec(
				"INSERT INTO tickets (subject, description, type, status, user_email, payment_required, created_at, updated_at) VALUES (?, '', ?, 'open', ?, false, now(), now())",
				t.Subject, t.Type, t.UserEmail,
			).Error; err != nil {
				log.Fatalf("failed to insert ticket %q: %v", t.Subject, err)
			}
			fmt.Printf("Seeded ticket: %s\n", t.Subject)
		}

		fmt.Println("Seed data loaded successfully")
	},
}
