package commands

import (
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/jumanzarismoilov-jpg/botim/botim"
	"github.com/jumanzarismoilov-jpg/botim/botim/handlers"
)

var Commands = []discord.ApplicationCommandCreate{
	Daily,
	Spin,
	Quiz,
	Send,
	Balance,
	Transactions,
	Leaderboard,
	Invite,
	Redeem,
	Missions,
	Order,
	AdminStats,
	AddBalance,
	Penalize,
	Ban,
	Unban,
	Orders,
}

// Register mounts every slash command and button on h.
func Register(h *handler.Mux, b *botim.Bot) {
	// Rewards
	h.Command("/daily", handlers.WrapWithLogging("daily", DailyHandler(b)))
	h.Command("/spin", handlers.WrapWithLogging("spin", SpinHandler(b)))
	h.Command("/quiz", handlers.WrapWithLogging("quiz", QuizHandler(b)))
	h.Component("/quiz/{token}/{option}", handlers.WrapComponentWithLogging("quiz-answer", QuizAnswerHandler(b)))
	h.Command("/missions", handlers.WrapWithLogging("missions", MissionsHandler(b)))
	h.Command("/invite", handlers.WrapWithLogging("invite", InviteHandler(b)))
	h.Command("/redeem", handlers.WrapWithLogging("redeem", RedeemHandler(b)))

	// Transfers
	h.Command("/send", handlers.WrapWithLogging("send", SendHandler(b)))
	h.Component("/transfer/confirm/{token}", handlers.WrapComponentWithLogging("transfer-confirm", TransferConfirmHandler(b)))
	h.Component("/transfer/cancel/{token}", handlers.WrapComponentWithLogging("transfer-cancel", TransferCancelHandler(b)))

	// Account views
	h.Command("/balance", handlers.WrapWithLogging("balance", BalanceHandler(b)))
	h.Command("/transactions", handlers.WrapWithLogging("transactions", TransactionsHandler(b)))
	h.Command("/leaderboard", handlers.WrapWithLogging("leaderboard", LeaderboardHandler(b)))
	h.Command("/order", handlers.WrapWithLogging("order", OrderHandler(b)))

	// Admin
	h.Command("/admin-stats", handlers.WrapWithLogging("admin-stats", AdminStatsHandler(b)))
	h.Command("/addbal", handlers.WrapWithLogging("addbal", AddBalanceHandler(b)))
	h.Command("/penalize", handlers.WrapWithLogging("penalize", PenalizeHandler(b)))
	h.Command("/ban", handlers.WrapWithLogging("ban", BanHandler(b, true)))
	h.Command("/unban", handlers.WrapWithLogging("unban", BanHandler(b, false)))
	h.Command("/orders", handlers.WrapWithLogging("orders", OrdersHandler(b)))
}
