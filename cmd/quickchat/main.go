package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	"github.com/quickchat/sync-core/auth"
	"github.com/quickchat/sync-core/chat"
	"github.com/quickchat/sync-core/contract"
	qerrors "github.com/quickchat/sync-core/errors"
	"github.com/quickchat/sync-core/internal"
	"github.com/quickchat/sync-core/media"
	"github.com/quickchat/sync-core/observability"
	"github.com/quickchat/sync-core/repositories"
	fsrepo "github.com/quickchat/sync-core/repositories/firestore"
	"github.com/quickchat/sync-core/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components and drives a small terminal client on
// top of the sync core. Keeping the logic out of main ensures defers
// (database close) execute before the process exits.
func run() error {
	_ = godotenv.Load()

	cfg, err := internal.Load()
	if err != nil {
		return err
	}
	log := observability.NewLogger(cfg.LogLevel)

	db, err := badger.Open(badger.DefaultOptions(cfg.BadgerFilepath).
		WithLoggingLevel(badger.ERROR))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	ctx := context.Background()

	var (
		profiles contract.IProfileRepository
		convs    contract.IConversationRepository
	)
	if cfg.FirestoreProject != "" {
		store, err := fsrepo.NewStore(ctx, cfg.FirestoreProject, log)
		if err != nil {
			return err
		}
		defer store.Close()
		profiles, convs = store, store
	} else {
		profiles = repositories.NewProfileRepository(db)
		convs = repositories.NewConversationRepository(db, log)
	}

	creds := auth.NewService(db, log, []byte(cfg.JWTSecret), cfg.AuthTokenDuration)
	cache := repositories.NewSessionCache(db, cfg.SessionTTL)
	uploader := media.NewUploader(media.NewDiskStorage(cfg.MediaDir, cfg.MediaBaseURL), log)
	resolver := chat.NewResolver(profiles, log)

	manager := session.NewManager(log, creds, profiles, cache, uploader)
	manager.Start(ctx)
	defer manager.Close()

	engine := chat.NewEngine(log, convs, profiles, resolver, uploader, cfg.SearchDebounce)
	defer engine.Close()

	return repl(ctx, manager, engine)
}

func repl(ctx context.Context, manager *session.Manager, engine *chat.Engine) error {
	color.Cyanln("quickchat - type 'help' for commands")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		color.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		cmd, args := fields[0], fields[1:]
		switch cmd {
		case "help":
			fmt.Println("signup <email> <password> <name> | login <email> <password> | logout")
			fmt.Println("chats | new <email> | open <chat-id> | send <text...> | search <term> | quit")
		case "signup":
			if len(args) < 3 {
				color.Redln("usage: signup <email> <password> <name>")
				continue
			}
			if err := manager.SignUp(ctx, args[0], args[1], strings.Join(args[2:], " "), "", ""); err != nil {
				color.Redln(qerrors.MessageOf(err))
				continue
			}
			engine.ListenToConversations(ctx, manager.Session().Get().UID)
			color.Greenln("signed up")
		case "login":
			if len(args) != 2 {
				color.Redln("usage: login <email> <password>")
				continue
			}
			if err := manager.Login(ctx, args[0], args[1]); err != nil {
				color.Redln(qerrors.MessageOf(err))
				continue
			}
			if s := manager.Session().Get(); s != nil {
				engine.ListenToConversations(ctx, s.UID)
				color.Greenln("welcome, " + s.DisplayLabel())
			}
		case "logout":
			if err := manager.Logout(ctx); err != nil {
				color.Redln(qerrors.MessageOf(err))
			}
		case "chats":
			renderChats(engine, manager)
		case "new":
			s := manager.Session().Get()
			if s == nil || len(args) != 1 {
				color.Redln("usage (logged in): new <email>")
				continue
			}
			id, err := engine.CreateNewChat(ctx, s.UID, args[0])
			if err != nil {
				color.Redln(qerrors.MessageOf(err))
				continue
			}
			fmt.Println("chat id:", id)
		case "open":
			if len(args) != 1 {
				color.Redln("usage: open <chat-id>")
				continue
			}
			engine.ListenToMessages(ctx, args[0])
			for _, m := range engine.Messages().Get() {
				body := m.Text
				if m.ImageURL != "" {
					body = m.ImageURL
				}
				fmt.Printf("[%s] %s: %s\n", m.Timestamp.Format("15:04:05"), m.SenderID, body)
			}
		case "send":
			s := manager.Session().Get()
			active := engine.ActiveConversationID().Get()
			if s == nil || active == "" || len(args) == 0 {
				color.Redln("open a chat and log in first")
				continue
			}
			if err := engine.SendMessage(ctx, active, s.UID, strings.Join(args, " ")); err != nil {
				color.Redln(qerrors.MessageOf(err))
			}
		case "search":
			engine.SetSearchTerm(strings.Join(args, " "))
		case "quit", "exit":
			return nil
		default:
			color.Redln("unknown command: " + cmd)
		}
	}
}

func renderChats(engine *chat.Engine, manager *session.Manager) {
	self := ""
	if s := manager.Session().Get(); s != nil {
		self = s.DisplayLabel()
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "With", "Last Message", "At"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	for _, c := range engine.Filtered().Get() {
		table.Append([]string{
			c.ID,
			c.CounterpartName(self),
			c.LastMessage,
			c.LastMessageTimestamp.Format("2006-01-02 15:04"),
		})
	}
	table.Render()
}
