package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

// Generates the bcrypt hash stored in users.password, for seeding accounts
// or resetting one by hand.
// Usage: go run scripts/hash_password.go <password> [email]
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run scripts/hash_password.go <password> [email]")
		os.Exit(1)
	}

	password := os.Args[1]
	if len(password) < 8 {
		fmt.Println("Passwords must be at least 8 characters")
		os.Exit(1)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Printf("Error generating hash: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Bcrypt Hash: %s\n", string(hashedPassword))
	if len(os.Args) > 2 {
		fmt.Printf("\nTo update in MongoDB, run:\n")
		fmt.Printf("db.users.updateOne(\n")
		fmt.Printf("  {\"email\": %q},\n", os.Args[2])
		fmt.Printf("  {$set: {\"password\": \"%s\"}}\n", string(hashedPassword))
		fmt.Printf(")\n")
	}
}
