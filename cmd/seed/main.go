package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/alphabot-ai/devconnect/internal/client"
)

var developers = []string{
	"Ada Lovelace",
	"Grace Hopper",
	"Linus Torvalds",
	"Barbara Liskov",
	"Ken Thompson",
}

var posts = []string{
	"Just shipped a rewrite of our build pipeline. Cold builds went from 9 minutes to 2.",
	"What's everyone's go-to approach for database migrations in CI?",
	"Hot take: most microservices should have stayed a module.",
	"Looking for reviewers on a small open source CLI for tailing structured logs.",
	"Finally understood how context cancellation propagates. Writing it up this weekend.",
	"Pairing beats code review for onboarding. Change my mind.",
	"Any recommendations for a lightweight job queue that doesn't need Redis?",
	"Profiling tip: look at allocations before you look at CPU.",
}

var comments = []string{
	"Great write-up, thanks for sharing.",
	"We hit the same problem last quarter.",
	"Have you benchmarked this against the old setup?",
	"Strongly agree.",
	"Not sure I agree, but I appreciate the perspective.",
	"Would love to see the code for this.",
	"Bookmarking this one.",
	"This is how we do it too, works well.",
}

func main() {
	baseURL := flag.String("url", "http://localhost:5000", "DevConnect server URL")
	password := flag.String("password", "password123", "Password for every seeded account")
	flag.Parse()

	log.Printf("Seeding %s...\n", *baseURL)

	var clients []*client.Client
	for _, name := range developers {
		c := client.New(*baseURL)
		email := strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com"
		if err := c.Register(name, email, *password); err != nil {
			if client.StatusOf(err) != 400 {
				log.Fatalf("register %s: %v", name, err)
			}
			// Already seeded once; reuse the account.
			if err := c.Login(email, *password); err != nil {
				log.Fatalf("login %s: %v", name, err)
			}
		}
		log.Printf("✓ %s", email)
		clients = append(clients, c)
	}

	var postIDs []string
	for _, text := range posts {
		idx := rand.Intn(len(clients))
		p, err := clients[idx].CreatePost(text)
		if err != nil {
			log.Printf("✗ Failed to post: %v", err)
			continue
		}
		postIDs = append(postIDs, p.ID)
		log.Printf("✓ Post %s (by %s)", p.ID, developers[idx])

		// Spread out dates so ordering is visible.
		time.Sleep(50 * time.Millisecond)
	}

	commentCount := 0
	for _, id := range postIDs {
		n := rand.Intn(4) + 1
		for i := 0; i < n; i++ {
			idx := rand.Intn(len(clients))
			if _, err := clients[idx].Comment(id, comments[rand.Intn(len(comments))]); err != nil {
				log.Printf("✗ Failed to comment: %v", err)
				continue
			}
			commentCount++
		}
	}
	log.Printf("✓ Added %d comments", commentCount)

	likeCount := 0
	for _, c := range clients {
		for _, id := range postIDs {
			if rand.Float32() < 0.4 {
				if _, err := c.Like(id); err == nil {
					likeCount++
				}
			}
		}
	}
	log.Printf("✓ Added %d likes", likeCount)

	fmt.Println("\n=== Seed Complete ===")
	fmt.Printf("Users:    %d\n", len(clients))
	fmt.Printf("Posts:    %d\n", len(postIDs))
	fmt.Printf("Comments: %d\n", commentCount)
	fmt.Printf("Likes:    %d\n", likeCount)
}
