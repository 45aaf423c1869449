package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/premhagargi/Kollab/auth"
	"github.com/premhagargi/Kollab/domain"
	"github.com/premhagargi/Kollab/session"
	"github.com/premhagargi/Kollab/storage"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}

	remote := buildRemote()
	if rc := redisClient(); rc != nil {
		ttl := 15 * time.Minute
		if v := os.Getenv("PROFILE_CACHE_TTL"); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil || d <= 0 {
				log.Fatalf("invalid PROFILE_CACHE_TTL: %v", err)
			}
			ttl = d
		}
		remote = storage.NewProfileCache(remote, rc, ttl)
	}

	userID := resolveUserID()
	boardID := os.Getenv("BOARD_ID")
	if boardID == "" {
		log.Fatal("missing BOARD_ID")
	}

	sess := session.New(remote, domain.UserProfile{ID: userID})
	defer sess.Close()

	ctx := context.Background()
	if err := sess.SelectBoard(ctx, boardID); err != nil {
		log.WithError(err).Fatal("load board")
	}

	board := sess.Board()
	tasks := sess.ActiveTasks()
	log.WithFields(log.Fields{
		"board":   board.Name,
		"columns": len(board.Columns),
		"tasks":   len(tasks),
	}).Info("board loaded")
	for _, col := range board.Columns {
		fmt.Printf("%s (%d)\n", col.Name, len(col.TaskIDs))
		for _, id := range col.TaskIDs {
			if task, ok := sess.Task(id); ok {
				marker := " "
				if task.IsCompleted {
					marker = "x"
				}
				fmt.Printf("  [%s] %s\n", marker, task.Title)
			}
		}
	}
}

func buildRemote() session.Remote {
	switch backend := strings.ToLower(os.Getenv("REMOTE_BACKEND")); backend {
	case "", "rest":
		baseURL := os.Getenv("API_BASE_URL")
		if baseURL == "" {
			log.Fatal("missing API_BASE_URL")
		}
		return storage.NewClient(baseURL, os.Getenv("API_TOKEN"))
	case "aztables":
		connStr := os.Getenv("STORAGE_CONNECTION_STRING")
		boardsTable := os.Getenv("BOARDS_TABLE")
		tasksTable := os.Getenv("TASKS_TABLE")
		usersTable := os.Getenv("USERS_TABLE")
		if connStr == "" || boardsTable == "" || tasksTable == "" || usersTable == "" {
			log.Fatal("missing storage config")
		}
		store, err := storage.NewTableStore(connStr, boardsTable, tasksTable, usersTable)
		if err != nil {
			log.Fatalf("storage: %v", err)
		}
		return store
	default:
		log.Fatalf("unsupported REMOTE_BACKEND: %s", backend)
		return nil
	}
}

func redisClient() *redis.Client {
	redisConn := os.Getenv("REDIS_CONNECTION_STRING")
	if redisConn == "" {
		return nil
	}
	redisOpts, err := redis.ParseURL(redisConn)
	if err != nil {
		parts := strings.Split(redisConn, ",")
		redisOpts = &redis.Options{Addr: parts[0]}
		for _, p := range parts[1:] {
			kv := strings.SplitN(p, "=", 2)
			if len(kv) != 2 {
				continue
			}
			switch strings.ToLower(kv[0]) {
			case "password":
				redisOpts.Password = kv[1]
			case "ssl":
				if strings.ToLower(kv[1]) == "true" {
					redisOpts.TLSConfig = &tls.Config{}
				}
			}
		}
	}
	return redis.NewClient(redisOpts)
}

// resolveUserID prefers the token subject so the session identity always
// matches the credential used against the API.
func resolveUserID() string {
	token := os.Getenv("API_TOKEN")
	if token == "" {
		userID := os.Getenv("USER_ID")
		if userID == "" {
			log.Fatal("missing USER_ID")
		}
		return userID
	}

	var verifier *auth.Verifier
	if strings.ToLower(os.Getenv("AUTH_MODE")) == "hs256" {
		verifier = auth.NewVerifier(nil, "", "")
	} else {
		audience := os.Getenv("AUTH_AUDIENCE")
		domain := os.Getenv("AUTH_DOMAIN")
		if audience == "" || domain == "" {
			log.Fatal("missing auth config")
		}
		jwksURL := fmt.Sprintf("https://%s/.well-known/jwks.json", domain)
		jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{})
		if err != nil {
			log.Fatalf("jwks: %v", err)
		}
		verifier = auth.NewVerifier(jwks, audience, "https://"+domain+"/")
	}

	userID, err := verifier.UserIDFromToken(token)
	if err != nil {
		log.WithError(err).Fatal("verify token")
	}
	return userID
}
