// Bulk scenario import.
//
// Reads a YAML file of scenarios and inserts any whose title is not already
// in the catalog. Intended for first deployments or when a content team
// delivers a new scenario pack.
//
// Usage: go run scripts/import_scenarios.go <scenarios.yaml>

package main

import (
	"caretrain_backend/internal/config"
	"caretrain_backend/internal/model"
	"caretrain_backend/pkg/database"
	"caretrain_backend/pkg/logger"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

type scenarioImport struct {
	Title             string `yaml:"title"`
	Category          string `yaml:"category"`
	ScenarioType      string `yaml:"scenarioType"`
	Difficulty        string `yaml:"difficulty"`
	Priority          string `yaml:"priority"`
	Description       string `yaml:"description"`
	PersonaName       string `yaml:"personaName"`
	PatientBackground string `yaml:"patientBackground"`
	EstimatedMinutes  int    `yaml:"estimatedMinutes"`
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: import_scenarios <scenarios.yaml>")
	}

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database, false)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatalf("Failed to read scenario file: %v", err)
	}

	var imports []scenarioImport
	if err := yaml.Unmarshal(data, &imports); err != nil {
		log.Fatalf("Failed to parse scenario file: %v", err)
	}

	inserted := 0
	for _, in := range imports {
		var count int64
		db.Model(&model.Scenario{}).Where("title = ?", in.Title).Count(&count)
		if count > 0 {
			log.Printf("skip %q: already exists", in.Title)
			continue
		}

		priority := model.Priority(in.Priority)
		if priority == "" {
			priority = model.PriorityMedium
		}

		scenario := model.Scenario{
			Title:             in.Title,
			Category:          in.Category,
			ScenarioType:      in.ScenarioType,
			Difficulty:        model.Difficulty(in.Difficulty),
			Priority:          priority,
			Description:       in.Description,
			PersonaName:       in.PersonaName,
			PatientBackground: in.PatientBackground,
			EstimatedMinutes:  in.EstimatedMinutes,
			IsActive:          true,
		}
		if err := db.Create(&scenario).Error; err != nil {
			log.Printf("insert %q failed: %v", in.Title, err)
			continue
		}
		inserted++
	}

	log.Printf("imported %d scenarios", inserted)
}
