package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"planchat/internal/ai"
	"planchat/internal/config"
	"planchat/internal/export"
	"planchat/internal/models"
	"planchat/internal/notify"
	"planchat/internal/services"
	"planchat/internal/session"
	"planchat/internal/storage"
	"planchat/internal/store"
	"planchat/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize storage backend
	backend, err := newBackend(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize storage backend: %v", err)
	}
	defer backend.Close()

	// Initialize change notifier, with a cross-process bridge when NATS
	// is configured. Without the bridge only this process sees change
	// events, which is fine for a single-user run.
	notifier := notify.New()
	if cfg.NATS.URL != "" {
		bridge, err := notify.NewNATSBridge(cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			logger.Error("NATS unavailable, running without cross-process sync: %v", err)
		} else {
			defer bridge.Close()
			if err := notifier.AttachBridge(bridge); err != nil {
				logger.Error("Failed to attach NATS bridge: %v", err)
			} else {
				logger.Info("Cross-process sync enabled on subject %s", cfg.NATS.Subject)
			}
		}
	}

	// Initialize store and services
	st := store.New(backend, notifier, store.DefaultKey)
	svc := services.NewRoomService(st, ai.New(cfg.AI))
	sess := session.NewManager(svc, cfg.Admin.Secret, cfg.Session.TypingTTL)

	unsubscribe := notifier.Subscribe(func(ev models.Event) {
		if ev.Name == models.EventRoomsSynced {
			fmt.Println("\n(rooms updated by another process, type 'show' to refresh)")
		}
	})
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		fmt.Println()
		sess.Exit(context.Background())
		cancel()
		os.Exit(0)
	}()

	logger.Info("Storage backend: %s", cfg.Storage.Backend)
	fmt.Println("planchat - type 'help' for commands")
	repl(ctx, sess, svc)

	sess.Exit(context.Background())
}

func newBackend(cfg *config.Config) (storage.Backend, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return storage.NewMemory(), nil
	case "file":
		return storage.NewFile(cfg.Storage.FileDir)
	case "redis":
		return storage.NewRedis(cfg.Storage.RedisURL)
	case "postgres":
		return storage.NewPostgres(cfg.Storage.PostgresURL)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func repl(ctx context.Context, sess *session.Manager, svc *services.RoomService) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		cmd, rest, _ := strings.Cut(line, " ")
		switch cmd {
		case "help":
			printHelp()

		case "rooms":
			listRooms(ctx, svc)

		case "create":
			title, password, _ := strings.Cut(rest, " ")
			room, err := svc.CreateRoom(ctx, title, password)
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			fmt.Printf("created room %q (%s)\n", room.Title, room.ID)

		case "join":
			joinRoom(ctx, sess, scanner, rest)

		case "send":
			sess.Typing(ctx)
			if err := sess.Send(ctx, rest); err != nil {
				fmt.Println("error:", err)
			}

		case "show":
			showRoom(ctx, sess)

		case "plans":
			listPlans(ctx, sess)

		case "plan":
			planCommand(ctx, sess, svc, rest)

		case "ai":
			aiReply(ctx, sess, svc)

		case "export":
			exportRoom(ctx, sess)

		case "admin":
			if sess.Unlock(rest) {
				fmt.Println("admin mode unlocked")
			} else {
				fmt.Println("wrong secret")
			}

		case "lock":
			sess.Lock()
			fmt.Println("admin mode locked")

		case "delete":
			if sess.User().Role != models.RoleAdmin && !sess.Elevated() {
				fmt.Println("admin only")
				continue
			}
			if err := svc.DeleteRoom(ctx, rest); err != nil {
				fmt.Println("error:", err)
			}

		case "exit":
			sess.Exit(ctx)
			fmt.Println("left room")

		case "quit":
			return

		default:
			fmt.Printf("unknown command %q, type 'help'\n", cmd)
		}
	}
}

func listRooms(ctx context.Context, svc *services.RoomService) {
	rooms := svc.ListRooms(ctx)
	if len(rooms) == 0 {
		fmt.Println("no rooms yet")
		return
	}
	for _, r := range rooms {
		lock := ""
		if r.IsPrivate() {
			lock = " (private)"
		}
		fmt.Printf("  %s  %s%s  %d messages\n", r.ID, r.Title, lock, len(r.Messages))
	}
}

func joinRoom(ctx context.Context, sess *session.Manager, scanner *bufio.Scanner, roomID string) {
	state, err := sess.Select(ctx, roomID)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	if state == session.InRoom {
		fmt.Printf("entered as %s\n", sess.User().Username)
		return
	}

	fmt.Print("nickname: ")
	if !scanner.Scan() {
		return
	}
	nickname := strings.TrimSpace(scanner.Text())

	password := ""
	if room, ok := sess.PendingRoom(ctx); ok && room.IsPrivate() {
		fmt.Print("password: ")
		if !scanner.Scan() {
			return
		}
		password = scanner.Text()
	}

	if err := sess.Join(ctx, nickname, password); err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Printf("joined as %s\n", nickname)
}

func showRoom(ctx context.Context, sess *session.Manager) {
	room, ok := sess.CurrentRoom(ctx)
	if !ok {
		fmt.Println("not in a room")
		return
	}
	fmt.Printf("== %s ==\n", room.Title)
	fmt.Print(export.Transcript(room))
	for user, typing := range room.Typing {
		if typing && user != sess.User().Username {
			fmt.Printf("%s is typing...\n", user)
		}
	}
}

func listPlans(ctx context.Context, sess *session.Manager) {
	room, ok := sess.CurrentRoom(ctx)
	if !ok {
		fmt.Println("not in a room")
		return
	}
	if len(room.Memos) == 0 {
		fmt.Println("no plans")
		return
	}
	for _, m := range room.Memos {
		fmt.Printf("  %s  %s: %s\n", m.ID, m.Title, m.Content)
	}
}

func planCommand(ctx context.Context, sess *session.Manager, svc *services.RoomService, rest string) {
	room, ok := sess.CurrentRoom(ctx)
	if !ok {
		fmt.Println("not in a room")
		return
	}
	// Plan memos are admin-gated at this layer; the store itself does not
	// enforce roles.
	if sess.User().Role != models.RoleAdmin {
		fmt.Println("admin only")
		return
	}

	sub, args, _ := strings.Cut(rest, " ")
	switch sub {
	case "add":
		title, content, _ := strings.Cut(args, "|")
		err := svc.AddMemo(ctx, room.ID, models.Memo{
			Title:   strings.TrimSpace(title),
			Content: strings.TrimSpace(content),
		})
		if err != nil {
			fmt.Println("error:", err)
		}
	case "del":
		if err := svc.DeleteMemo(ctx, room.ID, strings.TrimSpace(args)); err != nil {
			fmt.Println("error:", err)
		}
	default:
		fmt.Println("usage: plan add <title> | <content>  or  plan del <id>")
	}
}

func aiReply(ctx context.Context, sess *session.Manager, svc *services.RoomService) {
	room, ok := sess.CurrentRoom(ctx)
	if !ok {
		fmt.Println("not in a room")
		return
	}
	if sess.User().Role != models.RoleAdmin {
		fmt.Println("admin only")
		return
	}
	if err := svc.AppendAIReply(ctx, room.ID); err != nil {
		fmt.Println("error:", err)
	}
}

func exportRoom(ctx context.Context, sess *session.Manager) {
	room, ok := sess.CurrentRoom(ctx)
	if !ok {
		fmt.Println("not in a room")
		return
	}
	name := export.Filename(room)
	if err := os.WriteFile(name, []byte(export.Transcript(room)), 0o644); err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("wrote", name)
}

func printHelp() {
	fmt.Println(`commands:
  rooms                     list rooms
  create <title> [password] create a room
  join <room-id>            join a room (prompts for nickname/password)
  send <text>               send a message
  show                      print the current room
  plans                     list plan memos
  plan add <title> | <text> add a plan memo (admin)
  plan del <id>             delete a plan memo (admin)
  ai                        append an AI reply (admin)
  export                    write the transcript to a file
  admin <secret>            unlock admin mode
  lock                      lock admin mode
  delete <room-id>          delete a room (admin)
  exit                      leave the current room
  quit                      quit`)
}
