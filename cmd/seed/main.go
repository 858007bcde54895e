// Command main fills the database with demo users and posts.
package main

import (
	"flag"
	"log"

	"postboard/internal/config"
	"postboard/internal/database"
	"postboard/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 5, "Number of users to create")
	numPosts := flag.Int("posts", 30, "Number of posts to create")
	maxDays := flag.Int("days", 30, "Spread post creation over this many past days")
	shouldClean := flag.Bool("clean", false, "Clean database before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db, seed.Options{MaxDays: *maxDays})

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	users, err := s.Users(*numUsers)
	if err != nil {
		log.Fatalf("User seeding failed: %v", err)
	}
	posts, err := s.Posts(*numPosts)
	if err != nil {
		log.Fatalf("Post seeding failed: %v", err)
	}

	log.Printf("Seeded %d users and %d posts", len(users), len(posts))
	if len(users) > 0 {
		log.Printf("Log in as %s with password %s", users[0].Email, seed.DefaultPassword)
	}
}
