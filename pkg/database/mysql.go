package database

import (
	"caretrain_backend/internal/config"
	"caretrain_backend/internal/model"
	"fmt"
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig, migrate bool) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if migrate {
		err = db.AutoMigrate(
			&model.User{},
			&model.Scenario{},
			&model.ScenarioAttempt{},
			&model.AttemptResponse{},
		)

		if err != nil {
			return nil, err
		}

		log.Println("Database migration completed")

		seedScenarios(db)
	}

	return db, nil
}

// seedScenarios inserts a starter catalog when the table is empty so a fresh
// install has content to recommend against.
func seedScenarios(db *gorm.DB) {
	var count int64
	db.Model(&model.Scenario{}).Count(&count)
	if count > 0 {
		return
	}

	defaults := []model.Scenario{
		{
			Title:             "First Morning Visit",
			Category:          "Communication Basics",
			ScenarioType:      "home_visit",
			Difficulty:        model.Beginner,
			Priority:          model.PriorityHigh,
			Description:       "Introduce yourself to a new client on your first home visit and agree the morning routine.",
			PersonaName:       "Margaret",
			PatientBackground: "Margaret is 82, recently widowed, and anxious about strangers in her home. She values routine and politeness.",
			EstimatedMinutes:  10,
		},
		{
			Title:             "Refusing Medication",
			Category:          "Problem Solving Under Pressure",
			ScenarioType:      "medication",
			Difficulty:        model.Intermediate,
			Priority:          model.PriorityHigh,
			Description:       "A client refuses their morning medication. De-escalate and find out why without forcing the issue.",
			PersonaName:       "Harold",
			PatientBackground: "Harold is 76 and suspects his new tablets are making him dizzy. He has not told anyone yet.",
			EstimatedMinutes:  15,
		},
		{
			Title:             "Living with Dementia",
			Category:          "Dementia Care and Empathy",
			ScenarioType:      "dementia_care",
			Difficulty:        model.Intermediate,
			Priority:          model.PriorityMedium,
			Description:       "Redirect a distressed client who believes she needs to collect her children from school.",
			PersonaName:       "Edith",
			PatientBackground: "Edith is 88 with mid-stage dementia. Her children are in their sixties. Contradicting her directly causes distress.",
			EstimatedMinutes:  20,
		},
		{
			Title:             "Raising a Safeguarding Concern",
			Category:          "Professionalism and Reporting",
			ScenarioType:      "safeguarding",
			Difficulty:        model.Advanced,
			Priority:          model.PriorityHigh,
			Description:       "You notice unexplained bruising. Raise the concern with the client sensitively and follow procedure.",
			PersonaName:       "Frank",
			PatientBackground: "Frank is 69, fiercely independent, and minimizes injuries to avoid being moved into residential care.",
			EstimatedMinutes:  20,
		},
		{
			Title:             "End of Life Conversation",
			Category:          "Empathy in Difficult Moments",
			ScenarioType:      "end_of_life",
			Difficulty:        model.Advanced,
			Priority:          model.PriorityMedium,
			Description:       "A palliative client wants to talk about dying. Stay present and supportive without deflecting.",
			PersonaName:       "Rose",
			PatientBackground: "Rose is 91 and in palliative care. Her family avoids the subject, which leaves her feeling isolated.",
			EstimatedMinutes:  25,
		},
		{
			Title:             "Family Member Complaint",
			Category:          "Communication with Families",
			ScenarioType:      "family_liaison",
			Difficulty:        model.Beginner,
			Priority:          model.PriorityLow,
			Description:       "A daughter is unhappy about the visit schedule. Listen, acknowledge, and explain what you can and cannot change.",
			PersonaName:       "Susan",
			PatientBackground: "Susan visits her mother daily and feels the 30-minute calls are rushed. She is frustrated, not hostile.",
			EstimatedMinutes:  10,
		},
	}

	for _, s := range defaults {
		s.IsActive = true
		db.Create(&s)
	}
}
