package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/subbu1904/CoinTrackBack/internal/config"
	"github.com/subbu1904/CoinTrackBack/internal/handlers"
	"github.com/subbu1904/CoinTrackBack/internal/middleware"
	"github.com/subbu1904/CoinTrackBack/internal/repository"
	"github.com/subbu1904/CoinTrackBack/internal/services"
	chatws "github.com/subbu1904/CoinTrackBack/internal/websocket"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) {
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewUserProfileRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	assetRepo := repository.NewAssetRepository(db)
	predictionRepo := repository.NewPredictionRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	authHandler := handlers.NewAuthHandler(db, userRepo, profileRepo, cfg.JWTSecret)
	profileHandler := handlers.NewProfileHandler(profileRepo)
	trendingService := services.NewTrendingService(assetRepo)
	assetHandler := handlers.NewAssetHandler(assetRepo, categoryRepo, trendingService)
	predictionService := services.NewPredictionService(predictionRepo, assetRepo)
	predictionHandler := handlers.NewPredictionHandler(predictionService)
	announcementHandler := handlers.NewAnnouncementHandler(announcementRepo)
	chatHub := chatws.NewHub()
	go chatHub.Run()
	chatService := services.NewChatService(db, conversationRepo, messageRepo, userRepo)
	chatHandler := handlers.NewChatHandler(chatService, chatHub, cfg.JWTSecret)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	authProtected.Get("/profile", profileHandler.GetProfile)
	authProtected.Put("/profile", profileHandler.UpdateProfile)

	categories := authProtected.Group("/categories")
	categories.Get("", assetHandler.ListCategories)
	categories.Post("", middleware.AdminRequired(), assetHandler.CreateCategory)

	assets := authProtected.Group("/assets")
	assets.Get("", assetHandler.ListAssets)
	assets.Post("", middleware.AdminRequired(), assetHandler.CreateAsset)
	assets.Get("/trending", assetHandler.GetTrendingAssets)
	assets.Get("/:id", assetHandler.GetAsset)

	watchlist := authProtected.Group("/watchlist")
	watchlist.Get("", assetHandler.ListWatchlist)
	watchlist.Post("", assetHandler.AddToWatchlist)
	watchlist.Delete("/:assetId", assetHandler.RemoveFromWatchlist)

	predictions := authProtected.Group("/predictions")
	predictions.Get("", predictionHandler.ListPredictions)
	predictions.Post("", predictionHandler.CreatePrediction)
	predictions.Get("/:id", predictionHandler.GetPrediction)
	predictions.Delete("/:id", predictionHandler.DeletePrediction)
	predictions.Post("/:id/vote", predictionHandler.VotePrediction)

	announcements := authProtected.Group("/announcements")
	announcements.Get("", announcementHandler.ListAnnouncements)
	announcements.Post("", middleware.AdminRequired(), announcementHandler.CreateAnnouncement)
	announcements.Delete("/:id", middleware.AdminRequired(), announcementHandler.DeactivateAnnouncement)

	conversations := authProtected.Group("/conversations")
	conversations.Get("", chatHandler.ListConversations)
	conversations.Post("", chatHandler.CreateConversation)
	conversations.Get("/:id", chatHandler.GetConversation)
	conversations.Get("/:id/messages", chatHandler.GetMessages)
	conversations.Post("/:id/messages", chatHandler.SendMessage)
	conversations.Post("/:id/read", chatHandler.MarkRead)

	chat := api.Group("/v1/chat")
	chat.Get("/ws", chatHandler.WebSocketAuth, websocket.New(chatHandler.HandleWebSocket))
}
