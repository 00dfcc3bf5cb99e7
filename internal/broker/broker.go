// Package broker wires the Rendezvous Guard, Pending Table, Broker
// Acceptor, Chat Adapter, and Decision Router into the long-running bot
// daemon (spec.md §4).
//
// Grounded on original_source/src/bot.rs::run_bot for the overall shape —
// bind socket, spawn signal handler, run acceptor and chat dispatcher
// concurrently, drain on shutdown — and on
// igoryanba-ricochet/cmd/ricochet/main.go's signal.Notify + context.WithCancel
// idiom for the Go-native translation of tokio_util's CancellationToken.
package broker

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/alexsavio/vibe-reachout/internal/config"
	"github.com/alexsavio/vibe-reachout/internal/format"
	"github.com/alexsavio/vibe-reachout/internal/ipc"
	"github.com/alexsavio/vibe-reachout/internal/models"
	"github.com/alexsavio/vibe-reachout/internal/telegram"
)

// Run starts the broker daemon and blocks until it shuts down.
func Run(cfg config.Config) error {
	socketPath := cfg.EffectiveSocketPath()

	if err := ipc.DetectAndCleanStale(socketPath); err != nil {
		return err
	}

	acceptor, err := ipc.Listen(socketPath)
	if err != nil {
		return fmt.Errorf("broker: %w", err)
	}

	table := ipc.NewPendingTable()
	replyState := ipc.NewReplyPromptState()

	router := telegram.NewRouter(table, replyState, cfg.AllowedChatIDs)
	bot, err := telegram.New(cfg.TelegramBotToken, router)
	if err != nil {
		acceptor.Close()
		return fmt.Errorf("broker: %w", err)
	}
	router.SetAdapter(bot)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
		cancel()
	}()

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	notify := func(ctx context.Context, req models.PermissionRequest) ([]models.SentMessage, string, error) {
		return notifyAllChats(ctx, bot, cfg.AllowedChatIDs, req)
	}
	annotate := func(ctx context.Context, sent []models.SentMessage, originalText, status string) {
		for _, s := range sent {
			if err := bot.Edit(ctx, s.ChatID, s.MessageID, format.StatusSuffix(originalText, status)); err != nil {
				log.Warn().Err(err).Int64("chat_id", s.ChatID).Int("message_id", s.MessageID).Msg("annotating message")
			}
		}
	}

	acceptErrCh := make(chan error, 1)
	go func() {
		acceptErrCh <- acceptor.Serve(ctx, func(ctx context.Context, conn net.Conn) {
			ipc.HandleConnection(ctx, conn, table, notify, annotate, timeout)
		})
	}()

	log.Info().Str("socket", socketPath).Msg("bot started, listening for permission requests")

	go bot.Run(ctx)

	<-ctx.Done()
	log.Info().Msg("shutting down, draining pending requests")

	acceptor.Close()

	for _, rec := range table.Drain() {
		log.Info().Str("request_id", rec.RequestID.String()).Msg("resolving pending request as timeout on shutdown")
		rec.ReplyCh <- models.TimeoutResponse(rec.RequestID)
	}

	if err := <-acceptErrCh; err != nil {
		return fmt.Errorf("broker: %w", err)
	}
	return nil
}

func notifyAllChats(ctx context.Context, bot *telegram.Bot, chatIDs []int64, req models.PermissionRequest) ([]models.SentMessage, string, error) {
	body := format.PermissionMessage(req)
	buttons := telegram.MakeButtons(req.RequestID, len(req.PermissionSuggestions) > 0)

	var sent []models.SentMessage
	for _, chatID := range chatIDs {
		messageID, err := bot.Send(ctx, chatID, body, buttons)
		if err != nil {
			log.Warn().Err(err).Int64("chat_id", chatID).Msg("failed to send permission message")
			continue
		}
		sent = append(sent, models.SentMessage{ChatID: chatID, MessageID: messageID})
	}

	if len(sent) == 0 {
		return nil, body, fmt.Errorf("broker: failed to send permission message to any chat")
	}
	return sent, body, nil
}
