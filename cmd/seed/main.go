package main

import (
	"errors"
	"log"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"go.uber.org/zap"

	"github.com/clinicdesk/appointment-scheduling/internal/auth"
	"github.com/clinicdesk/appointment-scheduling/internal/booking"
	"github.com/clinicdesk/appointment-scheduling/internal/config"
	"github.com/clinicdesk/appointment-scheduling/internal/filestore"
)

const (
	patientCount     = 25
	bookingsPerUser  = 4
	attemptsPerSlot  = 10
	demoUserPassword = "demo-password"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer logger.Sync()

	store, err := filestore.New(cfg.DataDir, logger)
	if err != nil {
		log.Fatalf("filestore init error: %v", err)
	}
	authSvc, err := auth.NewService(cfg.DataDir, cfg.DoctorPassword, logger)
	if err != nil {
		log.Fatalf("auth init error: %v", err)
	}
	svc := booking.NewService(store, logger, cfg.BookingWindowDays)

	gofakeit.Seed(time.Now().UnixNano())

	usernames := seedPatients(authSvc, patientCount)
	seedBookings(svc, usernames)

	log.Println("seed complete")
}

func seedPatients(authSvc *auth.Service, count int) []string {
	log.Printf("seeding %d patients", count)

	usernames := make([]string, 0, count)
	for i := 0; i < count; i++ {
		username := gofakeit.Username()
		profile := auth.Profile{
			Username: username,
			Email:    gofakeit.Email(),
			Phone:    gofakeit.Phone(),
		}
		if err := authSvc.Register(profile, demoUserPassword); err != nil {
			if errors.Is(err, auth.ErrAlreadyExists) {
				continue
			}
			log.Fatalf("register %s: %v", username, err)
		}
		usernames = append(usernames, username)
	}

	log.Printf("patients seeded: %d", len(usernames))
	return usernames
}

func seedBookings(svc *booking.Service, usernames []string) {
	log.Printf("seeding bookings for %d patients", len(usernames))

	reasons := []string{
		"Annual checkup",
		"Follow-up visit",
		"Persistent headaches",
		"Back pain",
		"Skin rash",
		"Chest pain evaluation",
		"Vaccination",
	}

	booked := 0
	for _, username := range usernames {
		for i := 0; i < bookingsPerUser; i++ {
			req := booking.BookRequest{
				PatientName: gofakeit.Name(),
				Contact:     gofakeit.Phone(),
				Insurance:   gofakeit.Company(),
				Reason:      reasons[gofakeit.Number(0, len(reasons)-1)],
			}

			// Slots fill up as seeding progresses, so retry with fresh
			// random triples on conflicts.
			for attempt := 0; attempt < attemptsPerSlot; attempt++ {
				doctor := booking.Roster[gofakeit.Number(0, len(booking.Roster)-1)]
				date := booking.DateOf(time.Now()).AddDays(gofakeit.Number(1, 30))
				slot := booking.AllSlots[gofakeit.Number(0, len(booking.AllSlots)-1)]

				req.Doctor = doctor.DisplayName
				req.Date = date.String()
				req.Time = string(slot)

				_, err := svc.Book(username, req)
				if err == nil {
					booked++
					break
				}
				if !errors.Is(err, booking.ErrSlotTaken) {
					log.Fatalf("book for %s: %v", username, err)
				}
			}
		}
	}

	log.Printf("bookings seeded: %d", booked)
}
