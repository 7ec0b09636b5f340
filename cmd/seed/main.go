// Seeds the database with a sample home fleet for local development.
package main

import (
	"context"
	"log"

	"energy_manager/internal/config"
	"energy_manager/internal/db"
	"energy_manager/internal/device"
	"energy_manager/internal/store/postgres"
)

type seedDevice struct {
	name        string
	description string
	deviceType  string
	properties  map[string]float64
}

var fleet = []seedDevice{
	{"Roof Solar Array", "South-facing rooftop panels", "solar_panel", map[string]float64{
		"rated_capacity_watts": 5000,
	}},
	{"Home Battery", "Wall-mounted storage battery", "battery", map[string]float64{
		"capacity_wh":              13500,
		"max_charge_rate_watts":    5000,
		"max_discharge_rate_watts": 5000,
	}},
	{"Family EV", "Electric vehicle on the driveway charger", "electric_vehicle", map[string]float64{
		"battery_capacity_wh":      60000,
		"max_charge_rate_watts":    7200,
		"max_discharge_rate_watts": 9600,
	}},
	{"Refrigerator", "Kitchen refrigerator", "appliance", map[string]float64{
		"average_power_draw_watts": 150,
	}},
	{"Washing Machine", "Laundry room washer", "appliance", map[string]float64{
		"average_power_draw_watts": 500,
	}},
	{"Dishwasher", "Kitchen dishwasher", "appliance", map[string]float64{
		"average_power_draw_watts": 1500,
	}},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL must be set to seed")
	}

	sqlDB, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer sqlDB.Close()

	devices := device.NewService(postgres.New(sqlDB))
	ctx := context.Background()

	for _, sd := range fleet {
		d, err := devices.Register(ctx, sd.name, sd.description, sd.deviceType, sd.properties)
		if err != nil {
			log.Fatalf("register %s: %v", sd.name, err)
		}
		log.Printf("registered %s (%s) as %s", d.Name, d.Type, d.ID)
	}
}
