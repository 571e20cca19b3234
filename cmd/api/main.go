package main

import (
	"log"
	"os"
	"time"

	"daurulang-backend/internal/config"
	"daurulang-backend/internal/dispatch"
	"daurulang-backend/internal/handlers"
	"daurulang-backend/internal/notify"
	"daurulang-backend/internal/presence"
	"daurulang-backend/internal/routes"
	"daurulang-backend/internal/store"
	"daurulang-backend/internal/wallet"
	"daurulang-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// 2. Connect DB
	db, err := config.ConnectDB()
	if err != nil {
		log.Fatal(err)
	}

	// 3. Rakit dependency: store -> service -> handler
	requestStore := store.NewRequestStore(db)
	walletStore := store.NewWalletStore(db)

	dispatchSvc := dispatch.NewService(requestStore)
	walletSvc := wallet.NewService(walletStore)

	// Live map: posisi dianggap basi setelah 2 menit tanpa update
	hub := presence.NewHub(2 * time.Minute)
	defer hub.Close()

	// Push notification lewat pool biar tidak nge-block handler
	notifier := notify.NewNotifier(256)
	notifier.Start(4)
	defer notifier.Shutdown()

	h := handlers.New(db, dispatchSvc, walletSvc, hub, notifier)

	// 4. Init Router + Routes
	r := gin.Default()
	routes.SetupRoutes(r, h)

	// 5. Test Ping
	r.GET("/ping", func(c *gin.Context) {
		utils.APIResponse(c, 200, true, "Server OK!", nil)
	})

	// 6. Run Server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Println("Server berjalan di port " + port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
