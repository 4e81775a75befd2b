package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormpg "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with a demo company, users and approval rules for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		db, err := gorm.Open(gormpg.New(gormpg.Config{Conn: sqlxDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			for _, table := range []string{
				"approval_history", "approvals", "rule_approvers",
				"approval_rules", "expenses", "users", "expense_categories", "companies",
			} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear table %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		companyID := seedCompany(db, "Acme Corp", "United States", "USD")

		adminID := seedUser(db, companyID, "admin@acme.test", "Ava Admin", string(hash), "admin", nil)
		financeID := seedUser(db, companyID, "finance@acme.test", "Frank Finance", string(hash), "manager", nil)
		opsID := seedUser(db, companyID, "ops@acme.test", "Olive Ops", string(hash), "manager", nil)
		seedUser(db, companyID, "employee@acme.test", "Eli Employee", string(hash), "employee", &financeID)
		highSpenderID := seedUser(db, companyID, "sales@acme.test", "Sam Sales", string(hash), "employee", &financeID)

		categories := []struct {
			Name string
			Desc string
		}{
			{"travel", "business travel and transportation"},
			{"meals", "meals and entertainment"},
			{"office", "office supplies and equipment"},
			{"software", "software licenses and subscriptions"},
			{"other", "miscellaneous expenses"},
		}

		for _, c := range categories {
			var exists int
			row := db.Raw("SELECT 1 FROM expense_categories WHERE name = ?", c.Name).Row()
			if err := row.Scan(&exists); err != nil {
				if err := db.Exec("INSERT INTO expense_categories (name, description, is_active, created_at) VALUES (?, ?, true, now())", c.Name, c.Desc).Error; err != nil {
					log.Fatalf("failed to insert expense category %s: %v", c.Name, err)
				}
				fmt.Printf("Seeded expense category: %s\n", c.Name)
			}
		}

		// Sam's expenses go through finance then ops, in that order.
		seedSequentialRule(db, "sales two-step review", highSpenderID, financeID, opsID)

		fmt.Println("Seed complete. Admin login:", "admin@acme.test", "/", password, "(company", companyID, "admin", adminID, ")")
	},
}

func seedCompany(db *gorm.DB, name, country, baseCurrency string) int64 {
	var id int64
	row := db.Raw("SELECT id FROM companies WHERE name = ?", name).Row()
	if err := row.Scan(&id); err == nil {
		fmt.Println("company already exists:", name)
		return id
	}

	if err := db.Exec("INSERT INTO companies (name, country, base_currency, created_at, updated_at) VALUES (?, ?, ?, now(), now())", name, country, baseCurrency).Error; err != nil {
		log.Fatalf("failed to insert company: %v", err)
	}
	if err := db.Raw("SELECT id FROM companies WHERE name = ?", name).Row().Scan(&id); err != nil {
		log.Fatalf("failed to lookup company id: %v", err)
	}
	fmt.Println("Seeded company:", name)
	return id
}

func seedUser(db *gorm.DB, companyID int64, email, name, passwordHash, role string, managerID *int64) int64 {
	var id int64
	row := db.Raw("SELECT id FROM users WHERE email = ?", email).Row()
	if err := row.Scan(&id); err == nil {
		fmt.Println("user already exists:", email)
		return id
	}

	if err := db.Exec("INSERT INTO users (company_id, email, name, password_hash, role, manager_id, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, true, now(), now())",
		companyID, email, name, passwordHash, role, managerID).Error; err != nil {
		log.Fatalf("failed to insert user %s: %v", email, err)
	}
	if err := db.Raw("SELECT id FROM users WHERE email = ?", email).Row().Scan(&id); err != nil {
		log.Fatalf("failed to lookup user id for %s: %v", email, err)
	}
	fmt.Println("Seeded user:", email, "role:", role)
	return id
}

func seedSequentialRule(db *gorm.DB, name string, targetUserID int64, approverIDs ...int64) {
	var exists int
	row := db.Raw("SELECT 1 FROM approval_rules WHERE applies_to_user_id = ?", targetUserID).Row()
	if err := row.Scan(&exists); err == nil {
		fmt.Println("approval rule already exists for user:", targetUserID)
		return
	}

	if err := db.Exec("INSERT INTO approval_rules (name, applies_to_user_id, is_sequential, min_approval_percentage, created_at) VALUES (?, ?, true, 100, now())",
		name, targetUserID).Error; err != nil {
		log.Fatalf("failed to insert approval rule: %v", err)
	}

	var ruleID int64
	if err := db.Raw("SELECT id FROM approval_rules WHERE applies_to_user_id = ?", targetUserID).Row().Scan(&ruleID); err != nil {
		log.Fatalf("failed to lookup rule id: %v", err)
	}

	for i, approverID := range approverIDs {
		if err := db.Exec("INSERT INTO rule_approvers (rule_id, approver_user_id, sequence) VALUES (?, ?, ?)",
			ruleID, approverID, i+1).Error; err != nil {
			log.Fatalf("failed to insert rule approver: %v", err)
		}
	}

	fmt.Println("Seeded sequential approval rule for user:", targetUserID)
}
