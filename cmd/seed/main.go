package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"smarttrack/internal/app"
	"smarttrack/internal/config"
	"smarttrack/internal/database"
	"smarttrack/internal/domain/company"
	"smarttrack/internal/domain/trip"
	"smarttrack/internal/domain/user"

	"gorm.io/gorm"
)

const seedPassword = "password123"

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("refusing to seed a production database")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := database.Migrate(db, app.Models()...); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	// Cleanup old data (children first)
	log.Println("Cleaning old data...")
	for _, table := range []string{
		"outbox_events", "uploads", "manager_company_chats", "support_messages",
		"notifications", "trips", "customer_companies", "company_applications",
		"companies", "users",
	} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			log.Fatalf("clean %s: %v", table, err)
		}
	}

	hash, err := user.HashPassword(seedPassword)
	if err != nil {
		log.Fatal(err)
	}
	ctx := context.Background()
	users := user.NewRepository(db)
	companies := company.NewRepository(db)

	mustUser := func(u *user.User) *user.User {
		u.PasswordHash = hash
		if u.ApprovalStatus == "" {
			u.ApprovalStatus = user.ApprovalApproved
		}
		if err := users.Create(ctx, u); err != nil {
			log.Fatalf("create user %s: %v", u.Email, err)
		}
		return u
	}

	// ================== PLATFORM ==================
	mustUser(&user.User{Email: "owner@smarttrack.dev", Name: "Platform Owner", Role: user.RoleOwner, IsActive: true})
	mustUser(&user.User{Email: "admin@smarttrack.dev", Name: "Superadmin", Role: user.RoleSuperadmin, IsActive: true})

	// ================== COMPANIES ==================
	ids, err := snowflake.NewNode(cfg.SnowflakeNode)
	if err != nil {
		log.Fatal(err)
	}
	pricing := trip.Pricing{BaseFee: cfg.Pricing.BaseFee, PerKm: cfg.Pricing.PerKm, TaxRate: cfg.Pricing.TaxRate}

	var customers []*user.User
	for i := 1; i <= 3; i++ {
		customers = append(customers, mustUser(&user.User{
			Email:    fmt.Sprintf("customer%d@smarttrack.dev", i),
			Name:     fmt.Sprintf("Customer %d", i),
			Phone:    fmt.Sprintf("+1 555 010 00%02d", i),
			Role:     user.RoleCustomer,
			IsActive: true,
		}))
	}

	for i, name := range []string{"Swift Couriers", "Metro Logistics"} {
		co := &company.Company{
			Name:          name,
			Email:         fmt.Sprintf("company%d@smarttrack.dev", i+1),
			Tier:          company.TierBasic,
			BillingStatus: company.BillingActive,
			IsActive:      true,
		}
		if err := companies.Create(ctx, co); err != nil {
			log.Fatal(err)
		}
		cid := co.ID

		account := mustUser(&user.User{Email: co.Email, Name: name, Role: user.RoleCompany, CompanyID: &cid, IsActive: true})
		if err := companies.Update(ctx, cid, map[string]interface{}{"owner_user_id": account.ID}); err != nil {
			log.Fatal(err)
		}
		mustUser(&user.User{
			Email: fmt.Sprintf("manager%d@smarttrack.dev", i+1), Name: name + " Manager",
			Role: user.RoleManager, CompanyID: &cid, IsActive: true,
		})
		var drivers []*user.User
		for d := 1; d <= 2; d++ {
			drivers = append(drivers, mustUser(&user.User{
				Email: fmt.Sprintf("driver%d.%d@smarttrack.dev", i+1, d), Name: fmt.Sprintf("%s Driver %d", name, d),
				Role: user.RoleDriver, CompanyID: &cid, IsActive: true,
			}))
		}
		mustUser(&user.User{
			Email: fmt.Sprintf("pending.driver%d@smarttrack.dev", i+1), Name: "Pending Driver",
			Role: user.RoleDriver, CompanyID: &cid, ApprovalStatus: user.ApprovalPending,
		})

		for _, cu := range customers {
			if err := users.AddMembership(ctx, cu.ID, cid, time.Now().UTC()); err != nil {
				log.Fatal(err)
			}
			if cu.ActiveCompanyID == nil {
				cu.ActiveCompanyID = &cid
				if err := users.Update(ctx, cu.ID, map[string]interface{}{"active_company_id": cid}); err != nil {
					log.Fatal(err)
				}
			}
		}

		seedTrips(db, ids, pricing, cid, customers, drivers)
	}

	log.Printf("Seed completed. Every account uses password %q", seedPassword)
}

// ================== TRIPS ==================
func seedTrips(db *gorm.DB, ids *snowflake.Node, pricing trip.Pricing, companyID int64, customers, drivers []*user.User) {
	statuses := []trip.Status{trip.StatusPending, trip.StatusAccepted, trip.StatusAssigned, trip.StatusDelivering}
	for n := 0; n < 6; n++ {
		cu := customers[rand.Intn(len(customers))]
		pickup := trip.Location{Address: fmt.Sprintf("%d Market St", 100+n), Lat: 40.70 + rand.Float64()/20, Lng: -74.00 + rand.Float64()/20}
		dropoff := trip.Location{Address: fmt.Sprintf("%d Harbor Ave", 200+n), Lat: 40.72 + rand.Float64()/20, Lng: -73.98 + rand.Float64()/20}
		status := statuses[n%len(statuses)]
		now := time.Now().UTC()

		t := &trip.Trip{
			OrderNumber:        ids.Generate().String(),
			CompanyID:          companyID,
			CustomerID:         cu.ID,
			Pickup:             pickup,
			Dropoff:            dropoff,
			PackageDescription: "Documents",
			Status:             status,
			Timeline:           trip.Timeline{{Status: trip.StatusPending, Timestamp: now, ActorID: cu.ID}},
			Financials:         pricing.Quote(float64(10+rand.Intn(90)), 0, pickup, dropoff),
			ConfirmationCode:   uuid.NewString(),
			Version:            1,
		}
		if status == trip.StatusAssigned || status == trip.StatusDelivering {
			d := drivers[n%len(drivers)].ID
			t.DriverID = &d
		}
		if err := db.Create(t).Error; err != nil {
			log.Fatalf("create trip: %v", err)
		}
	}
}
