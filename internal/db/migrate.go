package db

import (
	"log"
	"time"

	"municipal-planning-collab/internal/domain"
)

// Migrate runs database migrations
func Migrate() {
	err := AppDb.AutoMigrate(
		&domain.Municipality{},
		&domain.Department{},
		&domain.User{},
		&domain.Plan{},
		&domain.Goal{},
		&domain.PlanCollaborator{},
		&domain.Comment{},
		&domain.Notification{},
		&domain.Activity{},
	)

	if err != nil {
		log.Fatal(err)
	}

	log.Println("Database schema migrated successfully")
}

// SeedData seeds the database with initial data (for development only)
func SeedData() {
	var count int64
	AppDb.Model(&domain.Municipality{}).Count(&count)
	if count > 0 {
		log.Println("Seed data already present")
		return
	}

	springfield := domain.Municipality{Name: "Springfield", State: "IL"}
	riverton := domain.Municipality{Name: "Riverton", State: "IL"}
	if err := AppDb.Create(&springfield).Error; err != nil {
		log.Printf("Error seeding municipalities: %v", err)
		return
	}
	if err := AppDb.Create(&riverton).Error; err != nil {
		log.Printf("Error seeding municipalities: %v", err)
		return
	}

	parks := domain.Department{MunicipalityID: springfield.ID, Name: "Parks & Recreation"}
	publicWorks := domain.Department{MunicipalityID: springfield.ID, Name: "Public Works"}
	AppDb.Create(&parks)
	AppDb.Create(&publicWorks)

	plan := domain.Plan{
		Title:          "2027 Parks Master Plan",
		Description:    "Five-year strategic plan for park facilities",
		FiscalYear:     2027,
		MunicipalityID: springfield.ID,
		DepartmentID:   parks.ID,
		CreatedByID:    1,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
	if err := AppDb.Create(&plan).Error; err != nil {
		log.Printf("Error seeding plan: %v", err)
		return
	}

	log.Println("Seeded development municipalities, departments and plan")
}
