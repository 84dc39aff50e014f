package botim

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/paginator"
	"github.com/jumanzarismoilov-jpg/botim/botim/config"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/admin"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/antifraud"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/audit"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/bonus"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/calendar"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/ledger"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/missions"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/notify"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/orders"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/quiz"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/random"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/referral"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/spin"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/transfer"
	"github.com/jumanzarismoilov-jpg/botim/internal/gateways/database"
	discordgw "github.com/jumanzarismoilov-jpg/botim/internal/gateways/discord"
	"github.com/jumanzarismoilov-jpg/botim/internal/gateways/spaces"
	"github.com/jumanzarismoilov-jpg/botim/internal/metrics"
)

func New(cfg Config, version string, commit string) *Bot {
	return &Bot{
		Cfg:       cfg,
		Paginator: paginator.New(),
		Version:   version,
		Commit:    commit,
	}
}

// Bot carries the Discord client and every service the commands use.
type Bot struct {
	Cfg       Config
	Client    bot.Client
	Paginator *paginator.Manager
	Version   string
	Commit    string
	DB        *database.DB

	Calendar  *calendar.Calendar
	Store     *ledger.Store
	Guard     *antifraud.Guard
	Notifier  *notify.Dispatcher
	Bonus     *bonus.Service
	Spin      *spin.Service
	Quiz      *quiz.Service
	Missions  *missions.Service
	Referrals *referral.Service
	Transfers *transfer.Machine
	Orders    *orders.Service
	Admin     *admin.Service
	Audit     *audit.Runner
}

// Init wires the reward engines on top of db. It does not touch Discord.
func (b *Bot) Init(ctx context.Context, db *database.DB) error {
	cal, err := calendar.Load(b.Cfg.Rewards.Timezone)
	if err != nil {
		return err
	}
	guard, err := antifraud.NewGuard(b.Cfg.GuardConfig(), cal.Now)
	if err != nil {
		return fmt.Errorf("failed to create anti-fraud guard: %w", err)
	}
	wheel, err := spin.NewWheel(spin.DefaultTable)
	if err != nil {
		return fmt.Errorf("failed to build wheel: %w", err)
	}

	m := metrics.Bot()
	guard.OnRejection(m.ObserveRejection)

	store := ledger.NewStore(db.BunDB(), cal)
	store.OnCommit(m.ObserveCommitted)

	dispatcher := notify.NewDispatcher(config.NotifyQueueSize, config.NotifyWorkers)
	dispatcher.OnResult = m.ObserveNotification

	rnd := random.Default()
	largeReward := b.Cfg.Rewards.BonusConfig().LargeReward

	b.DB = db
	b.Calendar = cal
	b.Store = store
	b.Guard = guard
	b.Notifier = dispatcher
	b.Bonus = bonus.NewService(store, guard, rnd, dispatcher, b.Cfg.Rewards.BonusConfig())
	b.Spin = spin.NewService(store, guard, wheel, rnd, dispatcher, largeReward)
	b.Quiz = quiz.NewService(store, guard, rnd, b.Cfg.Rewards.QuizTTL())
	b.Missions = missions.NewService(store, missions.DefaultRegistry(), dispatcher)
	b.Referrals = referral.NewService(store, guard, dispatcher, b.Cfg.Rewards.ReferralConfig())
	b.Transfers = transfer.NewMachine(store, guard, dispatcher, b.Cfg.Rewards.TransferTTL())
	b.Orders = orders.NewService(store, guard, dispatcher)
	b.Admin = admin.NewService(store, dispatcher, b.Cfg.Bot.AdminIDs())

	b.Audit = audit.NewRunner(store, b.Missions, audit.Config{Workers: b.Cfg.Audit.Workers})
	b.Audit.OnReport(func(r *audit.Report, err error) {
		switch {
		case err != nil:
			m.ObserveAudit("failed", 0, 0)
		case r.Skipped:
			m.ObserveAudit("skipped", 0, 0)
		default:
			m.ObserveAudit("ok", r.Accounts, r.Duration)
		}
	})
	if sc := b.Cfg.Spaces.Uploader(); sc.Enabled() {
		uploader, err := spaces.New(ctx, sc)
		if err != nil {
			return err
		}
		b.Audit.SetSnapshotter(uploader)
	}
	return nil
}

func (b *Bot) SetupBot(listeners ...bot.EventListener) error {
	client, err := disgo.New(b.Cfg.Bot.Token,
		bot.WithGatewayConfigOpts(gateway.WithIntents(
			gateway.IntentGuilds,
			gateway.IntentGuildMessages,
			gateway.IntentDirectMessages,
			gateway.IntentMessageContent,
		)),
		bot.WithCacheConfigOpts(cache.WithCaches(cache.FlagGuilds)),
		bot.WithEventListeners(b.Paginator),
		bot.WithEventListeners(listeners...),
	)
	if err != nil {
		return err
	}
	b.Client = client
	return b.SetupNotifier(client.Rest())
}

// SetupNotifier routes notifications through the Discord REST API. Commands
// that run without a gateway connection call it with a bare REST client.
func (b *Bot) SetupNotifier(client discordgw.REST) error {
	sender, err := discordgw.NewSender(client, b.Cfg.Bot.OperatorChannel)
	if err != nil {
		return err
	}
	b.Notifier.SetSender(sender)
	return nil
}

func (b *Bot) OnReady(_ *events.Ready) {
	slog.Info("botim is now ready",
		slog.String("type", "sys"),
		slog.String("version", b.Version),
		slog.String("commit", b.Commit))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := b.Client.SetPresence(ctx,
		gateway.WithListeningActivity("/daily"),
		gateway.WithOnlineStatus(discord.OnlineStatusOnline)); err != nil {
		slog.Error("Failed to set presence", slog.String("type", "sys"), slog.Any("error", err))
	}
}

// IsAdmin reports whether the Discord user is a configured administrator.
func (b *Bot) IsAdmin(userID int64) bool {
	return b.Admin.Authorize(userID) == nil
}
