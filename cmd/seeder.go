package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
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

		db, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: sqlxDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			if err := db.Exec("DELETE FROM expenses").Error; err != nil {
				log.Fatalf("failed to clear expenses: %v", err)
			}
			if err := db.Exec("DELETE FROM users").Error; err != nil {
				log.Fatalf("failed to clear users: %v", err)
			}
			fmt.Println("Cleared existing data")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		users := []struct {
			Username string
			Email    string
			IsStaff  bool
		}{
			{"alice", "alice@mail.com", false},
			{"bob", "bob@mail.com", false},
			{"admin", "admin@mail.com", true},
		}

		for _, u := range users {
			var exists int
			row := db.Raw("SELECT 1 FROM users WHERE username = ?", u.Username).Row()
			if err := row.Scan(&exists); err == nil {
				fmt.Printf("user %s already exists; skipping\n", u.Username)
				continue
			}

			if err := db.Exec(
				"INSERT INTO users (username, email, password_hash, is_staff, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, true, now(), now())",
				u.Username, u.Email, string(hash), u.IsStaff,
			).Error; err != nil {
				log.Fatalf("failed to insert user %s: %v", u.Username, err)
			}
			fmt.Printf("Seeded user: %s (staff=%v)\n", u.Username, u.IsStaff)
		}

		var aliceID int64
		if err := db.Raw("SELECT id FROM users WHERE username = ?", "alice").Row().Scan(&aliceID); err != nil {
			log.Fatalf("failed to lookup alice user id: %v", err)
		}

		expenses := []struct {
			Title    string
			Amount   string
			Category string
			Date     string
			Notes    string
		}{
			{"Lunch at cafe", "12.50", "food", "2025-01-06", "team lunch"},
			{"Train ticket", "34.00", "travel", "2025-01-08", ""},
			{"Electricity bill", "89.90", "utilities", "2025-01-10", "january invoice"},
			{"Stationery", "7.25", "misc", "2025-01-12", ""},
		}

		for _, e := range expenses {
			var exists int
			row := db.Raw("SELECT 1 FROM expenses WHERE user_id = ? AND title = ?", aliceID, e.Title).Row()
			if err := row.Scan(&exists); err == nil {
				continue
			}

			var notes any
			if e.Notes != "" {
				notes = e.Notes
			}
			if err := db.Exec(
				"INSERT INTO expenses (user_id, title, amount, category, date, notes, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, now(), now())",
				aliceID, e.Title, e.Amount, e.Category, e.Date, notes,
			).Error; err != nil {
				log.Fatalf("failed to insert expense %s: %v", e.Title, err)
			}
			fmt.Printf("Seeded expense: %s\n", e.Title)
		}

		fmt.Println("Sample data seeded successfully")
	},
}
