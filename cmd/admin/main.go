// Command admin is the operator CLI for account moderation: archiving a user
// freezes them out of messaging without destroying their history.
package main

import (
	"fmt"
	"log"
	"os"

	"petnet/backend/internal/storage"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	storageSvc := storage.NewStorageService(db, nil) // No redis needed for admin CLI

	if len(os.Args) < 3 {
		fmt.Println("Usage: admin <archive|restore|show> <user_id>")
		os.Exit(1)
	}

	command := os.Args[1]
	userID := os.Args[2]

	switch command {
	case "archive":
		if err := setArchived(storageSvc, userID, true); err != nil {
			log.Fatalf("Error archiving user: %v", err)
		}
		fmt.Printf("User %s has been archived.\n", userID)
	case "restore":
		if err := setArchived(storageSvc, userID, false); err != nil {
			log.Fatalf("Error restoring user: %v", err)
		}
		fmt.Printf("User %s has been restored.\n", userID)
	case "show":
		user, err := storageSvc.GetUserByID(userID)
		if err != nil {
			log.Fatalf("Error loading user: %v", err)
		}
		if user == nil {
			fmt.Printf("User %s not found.\n", userID)
			os.Exit(1)
		}
		fmt.Printf("%s  %s  archived=%v  devices=%d\n",
			user.ID, user.FullName(), user.IsArchived, len(user.DeviceTokens))
	default:
		fmt.Println("Unknown command")
		os.Exit(1)
	}
}

func setArchived(s storage.Storage, userID string, archived bool) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user %s not found", userID)
	}
	return s.SetUserArchived(userID, archived)
}
