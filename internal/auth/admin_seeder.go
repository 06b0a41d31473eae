package auth

import (
	"context"
	"fmt"
	"log"

	"pph-ledger/internal/database"

	"golang.org/x/crypto/bcrypt"
)

// AdminBcryptCost is the bcrypt cost for the seeded admin password
const AdminBcryptCost = 12

// SeedAdminUser ensures an admin user exists with proper credentials.
// It creates the admin if missing, or updates the password if it has drifted.
func SeedAdminUser(ctx context.Context, db *database.DB, email, password string) error {
	if email == "" || password == "" {
		return fmt.Errorf("admin email and password are required for seeding")
	}

	repo := database.NewRepository(db)

	// Check if admin user exists
	user, err := repo.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check for admin user: %w", err)
	}

	// Hash the admin password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), AdminBcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	if user == nil {
		// Create admin user
		log.Printf("Admin user not found. Creating admin user: %s", email)

		adminUser := &database.User{
			Email:        email,
			PasswordHash: string(hashedPassword),
			DisplayName:  "Administrator",
			Role:         database.RoleAdmin,
			IsAdmin:      true,
		}

		if err := repo.CreateUser(ctx, adminUser); err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		log.Printf("Admin user created successfully with ID: %s", adminUser.ID)
		return nil
	}

	// User exists - check if password needs updating
	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if err != nil {
		log.Printf("Admin user exists but password needs updating. Updating password for: %s", email)

		if err := repo.UpdateUserPassword(ctx, user.ID, string(hashedPassword)); err != nil {
			return fmt.Errorf("failed to update admin password: %w", err)
		}

		log.Printf("Admin password updated successfully")
	}

	// Ensure admin flags are set correctly
	if !user.IsAdmin || user.Role != database.RoleAdmin {
		log.Printf("Updating admin user flags")

		user.IsAdmin = true
		user.Role = database.RoleAdmin

		if err := repo.UpdateUser(ctx, user); err != nil {
			return fmt.Errorf("failed to update admin user flags: %w", err)
		}

		log.Printf("Admin user flags updated successfully")
	}

	return nil
}
