// Seeds a store with mock users, posts and interactions, runs one reward
// pull through the normal loops and prints the resulting balances. Handy for
// poking at the on-disk layout without a client.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	winsome "github.com/winsome-net/winsome"
	"github.com/winsome-net/winsome/pkg/types"
)

func randomString(n int) string {
	const letterBytes = "abcdefghijklmnopqrstuvwxyz"
	b := make([]byte, n)
	for i := range b {
		b[i] = letterBytes[rand.Intn(len(letterBytes))]
	}
	return string(b)
}

func main() {
	dataDir := flag.String("data", "seed-data", "data directory to fill")
	userCount := flag.Int("users", 10, "number of users")
	postCount := flag.Int("posts", 30, "number of posts")
	flag.Parse()

	log := logrus.New()

	w, err := winsome.New(winsome.Config{
		DataDir:        *dataDir,
		RewardInterval: time.Second,
	})
	if err != nil {
		log.Fatalf("error starting store: %v", err)
	}

	usernames := make([]string, 0, *userCount)
	for i := 0; i < *userCount; i++ {
		name := fmt.Sprintf("user%02d", i)
		if _, err := w.Store.CreateUser(name, randomString(12), []string{"go", "storage"}); err != nil {
			log.Fatalf("error creating user %s: %v", name, err)
		}
		usernames = append(usernames, name)
	}

	// Everyone follows everyone, so every interaction is allowed.
	for _, a := range usernames {
		for _, b := range usernames {
			if a == b {
				continue
			}
			if err := w.Store.FollowUser(a, b); err != nil {
				log.Fatalf("error following: %v", err)
			}
		}
	}

	for i := 0; i < *postCount; i++ {
		author := usernames[rand.Intn(len(usernames))]
		post, err := w.Store.CreatePost(author, randomString(12), randomString(80))
		if err != nil {
			log.Fatalf("error creating post: %v", err)
		}

		for _, username := range usernames {
			if username == author || rand.Intn(3) != 0 {
				continue
			}
			if _, err := w.Store.AddComment(username, post.ID, randomString(30)); err != nil {
				log.Fatalf("error commenting: %v", err)
			}
			vote := types.VoteLike
			if rand.Intn(5) == 0 {
				vote = types.VoteDislike
			}
			if _, err := w.Store.RatePost(username, post.ID, vote); err != nil {
				log.Fatalf("error rating: %v", err)
			}
		}
	}

	// Let the reward engine drain the staging node once.
	time.Sleep(2 * time.Second)

	if err := w.Close(); err != nil {
		log.Fatalf("error closing store: %v", err)
	}

	w, err = winsome.New(winsome.Config{DataDir: *dataDir})
	if err != nil {
		log.Fatalf("error reopening store: %v", err)
	}
	defer w.Close()

	for _, username := range usernames {
		balance, err := w.Wallet().Balance(username)
		if err != nil {
			log.Fatalf("error reading balance: %v", err)
		}
		fmt.Printf("%s\t%.2f\n", username, balance)
	}
}
