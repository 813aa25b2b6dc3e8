//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/ghseeli/service-booking/internal/application"
	bookingEvents "github.com/ghseeli/service-booking/internal/events"
	"github.com/ghseeli/service-booking/internal/repository"
	"github.com/ghseeli/service-booking/pkg/database"
	"github.com/ghseeli/service-booking/pkg/kafka"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	KafkaBrokers []string
	Cleanup      func()
}

// bookingStack holds wired-up booking service components.
type bookingStack struct {
	Bookings        *repository.GormBookingRepository
	Service         *application.BookingService
	Consumer        *bookingEvents.PaymentEventConsumer
	CleanupProducer func()
}

// fixture is one customer with a vehicle and address, and a company service option.
type fixture struct {
	UserID          uuid.UUID
	CompanyID       uuid.UUID
	VehicleID       uuid.UUID
	AddressID       uuid.UUID
	ServiceOptionID uuid.UUID
}

// setupPostgres starts a PostgreSQL container and applies the SQL migrations.
func setupPostgres(t *testing.T) (*gorm.DB, func()) {
	t.Helper()
	ctx := context.Background()
	log := zap.NewNop()

	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "test_booking",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := database.PostgresConfig{
		Host:     host,
		Port:     port.Int(),
		User:     "test",
		Password: "test",
		DBName:   "test_booking",
		SSLMode:  "disable",
	}

	// Poll until GORM can actually connect and ping.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = database.Connect(cfg, log)
		return err == nil
	}, 30*time.Second, time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, database.RunMigrations(cfg.DatabaseURL(), "migrations", log))

	return db, func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}
}

// setupContainers starts PostgreSQL and Kafka testcontainers.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	db, cleanupPostgres := setupPostgres(t)

	// Start Kafka container using confluent-local (supports KRaft natively).
	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	createTopics(t, kafkaBrokers, "booking.events", "payment.events")

	return &testInfra{
		DB:           db,
		KafkaBrokers: kafkaBrokers,
		Cleanup: func() {
			if err := kafkaContainer.Terminate(ctx); err != nil {
				t.Logf("failed to terminate Kafka container: %v", err)
			}
			cleanupPostgres()
		},
	}
}

// setupBookingStack wires the booking services against db. Without brokers events are dropped.
func setupBookingStack(t *testing.T, db *gorm.DB, brokers []string) *bookingStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	var (
		publisher application.EventPublisher = kafka.NopPublisher{}
		cleanup                              = func() {}
	)
	if len(brokers) > 0 {
		producer := kafka.NewProducer(brokers, logger)
		publisher = producer
		cleanup = func() { _ = producer.Close() }
	}

	bookingRepo := repository.NewGormBookingRepository(db)
	clock := application.SystemClock{}
	bookingSvc := application.NewBookingService(application.BookingServiceDeps{
		Bookings:       bookingRepo,
		Vehicles:       repository.NewGormVehicleRepository(db),
		Addresses:      repository.NewGormAddressRepository(db),
		ServiceOptions: repository.NewGormServiceOptionRepository(db),
		Tx:             repository.NewGormTxManager(db),
		Clock:          clock,
		IDs:            application.UUIDGenerator{},
		Publisher:      publisher,
		Logger:         logger,
	})

	stack := &bookingStack{
		Bookings:        bookingRepo,
		Service:         bookingSvc,
		CleanupProducer: cleanup,
	}
	if len(brokers) > 0 {
		payments := application.NewPaymentLinkService(bookingRepo, clock, publisher, nil, logger)
		groupID := fmt.Sprintf("test-booking-%s", uuid.New().String()[:8])
		stack.Consumer = bookingEvents.NewPaymentEventConsumer(brokers, groupID, payments, logger)
	}
	return stack
}

// seedFixture inserts the reference rows a booking points at.
func seedFixture(t *testing.T, db *gorm.DB, durationMinutes int) fixture {
	t.Helper()
	f := fixture{
		UserID:          uuid.New(),
		CompanyID:       uuid.New(),
		VehicleID:       uuid.New(),
		AddressID:       uuid.New(),
		ServiceOptionID: uuid.New(),
	}

	require.NoError(t, db.Create(&repository.VehicleModel{
		ID: f.VehicleID, UserID: f.UserID, Make: "Toyota", Model: "Corolla", Year: "2020", LicensePlate: "ABC-123",
	}).Error)
	require.NoError(t, db.Create(&repository.AddressModel{
		ID: f.AddressID, UserID: f.UserID, AddressLine: "12 King Fahd Rd", City: "Riyadh", Area: "Olaya",
	}).Error)
	require.NoError(t, db.Create(&repository.ServiceOptionModel{
		ID: f.ServiceOptionID, ServiceID: uuid.New(), CompanyID: &f.CompanyID,
		Name: "Exterior wash", DurationMinutes: durationMinutes, PriceCents: 2500,
	}).Error)
	return f
}

// futureSlot returns an hour-aligned start days ahead of now.
func futureSlot(days int) time.Time {
	return time.Now().UTC().Truncate(time.Hour).Add(time.Duration(days) * 24 * time.Hour)
}

// publishTestEvent publishes a CloudEvent to Kafka.
func publishTestEvent(t *testing.T, brokers []string, topic, source, eventType string, data interface{}) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	producer := kafka.NewProducer(brokers, logger)
	defer func() { _ = producer.Close() }()

	ce, err := kafka.NewCloudEvent(source, eventType, data)
	require.NoError(t, err, "failed to create cloud event")

	err = producer.PublishEvent(context.Background(), topic, ce)
	require.NoError(t, err, "failed to publish event")
}

// waitForPaidFlag polls the bookings table until is_paid matches.
func waitForPaidFlag(t *testing.T, db *gorm.DB, bookingID uuid.UUID, expected bool, timeout time.Duration) repository.BookingModel {
	t.Helper()
	var result repository.BookingModel
	require.Eventually(t, func() bool {
		var model repository.BookingModel
		if err := db.Where("id = ?", bookingID).First(&model).Error; err != nil {
			return false
		}
		if model.IsPaid == expected {
			result = model
			return true
		}
		return false
	}, timeout, 200*time.Millisecond, "booking paid flag did not become %v", expected)
	return result
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	require.NoError(t, controllerConn.CreateTopics(topicConfigs...), "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}
