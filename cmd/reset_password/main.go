package main

import (
	"flag"
	"fmt"
	"log"

	"bukukas/models"
	"bukukas/pkg/auth"
	"bukukas/pkg/config"
	"bukukas/pkg/database"
)

func main() {
	username := flag.String("username", "", "username to reset")
	password := flag.String("password", "", "new plaintext password (min 6 chars)")
	flag.Parse()
	if *username == "" || *password == "" {
		log.Fatal("--username and --password are required")
	}
	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatal(err)
	}

	cfg := config.Load()
	db, err := database.Open(cfg.DB)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer database.Close(db)

	var user models.User
	if err := db.Where("username = ?", *username).First(&user).Error; err != nil {
		log.Fatalf("user not found: %v", err)
	}
	if err := db.Model(&user).Update("hashed_password", hash).Error; err != nil {
		log.Fatalf("update failed: %v", err)
	}
	fmt.Printf("Password reset for user %s\n", user.Username)
}
