package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"bukukas/models"
	"bukukas/pkg/auth"
	"bukukas/pkg/config"
	"bukukas/pkg/database"
)

func main() {
	role := flag.String("role", models.RoleMember, "role for the new user (admin|member)")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: go run ./cmd/create_user [-role admin|member] <username> <password>")
	}
	flag.Parse()
	if flag.NArg() < 2 {
		flag.Usage()
		os.Exit(2)
	}
	username, password := flag.Arg(0), flag.Arg(1)
	if *role != models.RoleAdmin && *role != models.RoleMember {
		log.Fatalf("unknown role %q", *role)
	}

	cfg := config.Load()
	db, err := database.Open(cfg.DB)
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer database.Close(db)
	if err := database.Seed(db, cfg.SeedAdminPassword); err != nil {
		log.Fatalf("failed to ensure roles: %v", err)
	}

	var existing models.User
	if err := db.Where("username = ?", username).First(&existing).Error; err == nil {
		fmt.Printf("user %s already exists (id=%d)\n", username, existing.ID)
		os.Exit(0)
	}

	hpw, err := auth.HashPassword(password)
	if err != nil {
		log.Fatal(err)
	}
	rid, err := database.RoleID(db, *role)
	if err != nil {
		log.Fatalf("find role %s: %v", *role, err)
	}
	user := models.User{Username: username, HashedPassword: hpw, RoleID: &rid}
	if err := db.Create(&user).Error; err != nil {
		if database.IsUniqueConstraintError(err) {
			log.Fatalf("user %s already exists", username)
		}
		log.Fatalf("failed to create user: %v", err)
	}
	fmt.Printf("created user %s role=%s id=%d\n", username, *role, user.ID)
}
