package main

import (
	"context"
	"log"

	"github.com/devdual/BattleRoomManagerService/internal/bus"
	configs "github.com/devdual/BattleRoomManagerService/internal/config"
	"github.com/devdual/BattleRoomManagerService/internal/db"
	"github.com/devdual/BattleRoomManagerService/internal/handlers"
	"github.com/devdual/BattleRoomManagerService/internal/judge"
	"github.com/devdual/BattleRoomManagerService/internal/jwt"
	"github.com/devdual/BattleRoomManagerService/internal/model"
	"github.com/devdual/BattleRoomManagerService/internal/presence"
	"github.com/devdual/BattleRoomManagerService/internal/repo"
	"github.com/devdual/BattleRoomManagerService/internal/service"
	"github.com/devdual/BattleRoomManagerService/internal/wss"
	wsshandler "github.com/devdual/BattleRoomManagerService/internal/wss/handlers"
)

func main() {
	cfg := configs.LoadConfig()

	mongoClient, err := db.InitMongo(&cfg)
	if err != nil {
		log.Fatalf("mongo init failed: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())

	psql, err := db.InitPsql(&cfg)
	if err != nil {
		log.Fatalf("postgres init failed: %v", err)
	}
	if err := repo.AutoMigrate(psql); err != nil {
		log.Fatalf("postgres migrate failed: %v", err)
	}

	rdb, err := db.NewRedisClient(&cfg)
	if err != nil {
		log.Fatalf("redis init failed: %v", err)
	}
	defer rdb.Close()

	roomRepo := repo.NewRoomRepository(mongoClient, cfg.MongoDBName)
	if err := roomRepo.EnsureIndexes(context.Background()); err != nil {
		log.Fatalf("room index creation failed: %v", err)
	}
	userRepo := repo.NewUserRepository(mongoClient, cfg.MongoDBName)
	problemRepo := repo.NewProblemRepository(mongoClient, cfg.MongoDBName)
	participantRepo := repo.NewParticipantRepository(mongoClient, cfg.MongoDBName)
	if err := participantRepo.EnsureIndexes(context.Background()); err != nil {
		log.Fatalf("participant index creation failed: %v", err)
	}
	matchRepo := repo.NewMatchRepository(psql)
	submissionRepo := repo.NewSubmissionRepository(psql)

	tracker := presence.NewTracker(rdb)
	eventBus := bus.New(tracker)
	jwtManager := jwt.NewJWTManager(cfg.JWTSecret)
	evaluator := judge.NewLLMJudge(cfg.EvaluatorURL, cfg.EvaluatorAPIKey, cfg.EvaluatorModel)

	finalizer := service.NewFinalizer(roomRepo, matchRepo, participantRepo, eventBus)
	roomService := service.NewRoomService(roomRepo, userRepo, matchRepo, participantRepo, eventBus, finalizer)
	submissionService := service.NewSubmissionService(matchRepo, problemRepo, participantRepo, submissionRepo, evaluator, eventBus, finalizer)

	dispatcher := wss.NewDispatcher()
	wsHandlers := &wsshandler.Handlers{
		Rooms:       roomService,
		Submissions: submissionService,
		Users:       userRepo,
		Tracker:     tracker,
		Bus:         eventBus,
		Jwt:         jwtManager,
	}
	dispatcher.Register(model.EvtJoinRoom, wsHandlers.JoinRoom)
	dispatcher.Register(model.EvtLeaveRoom, wsHandlers.LeaveRoom)
	dispatcher.Register(model.EvtCancelRoom, wsHandlers.CancelRoom)
	dispatcher.Register(model.EvtStartMatch, wsHandlers.StartMatch)
	dispatcher.Register(model.EvtSyncCode, wsHandlers.SyncCode)
	dispatcher.Register(model.EvtCodeSubmitted, wsHandlers.CodeSubmitted)
	dispatcher.Register(model.EvtChangeProblem, wsHandlers.ChangeProblem)
	dispatcher.Register(model.EvtSendMessage, wsHandlers.SendMessage)

	router := handlers.Router(
		jwtManager,
		handlers.NewAuthHandler(userRepo, jwtManager),
		handlers.NewRoomHandler(roomService),
		handlers.NewSubmissionHandler(submissionService),
		wss.WsHandler(dispatcher, tracker, eventBus, roomService),
	)

	addr := ":" + cfg.HTTPPort
	log.Printf("starting battle room manager on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
