// Package knowledge 本地技术资料库，用于补充 AI 诊断结果
package knowledge

import "github.com/langchou/smartmechanic/internal/models"

// Parts 内置技术资料，顺序即匹配优先级
var Parts = []models.TechnicalPart{
	{
		ID:          "wheel_speed_sensor",
		CodeMatch:   []string{"WHEEL_SPEED", "ABS_SENSOR", "SID1", "SID2", "SID3", "SID4", "SPEED", "VITESSE"},
		Name:        "Wheel Speed Sensor (EBS/ABS Sensor)",
		OEMRefs:     []string{"5010422332", "4410328080"},
		Location:    "Behind the wheel hub, seated in a brass sleeve behind the brake disc",
		ImageURL:    "https://images.unsplash.com/photo-1621360341398-466d63964177?q=80&w=1200&auto=format&fit=crop",
		DocumentRef: "Renault 70 627 / Section 5: EBS",
		Specs:       "Resistance: 1.1 - 1.3 kOhm. Air Gap: 0.5mm.",
		Removal: []string{
			"Secure the truck and raise the axle",
			"Remove the wheel to reach the hub",
			"Pull the sensor out of the brass sleeve",
			"Clean the sensor and the toothed ring",
		},
		Assembly: []string{
			"Fit a new greased sleeve",
			"Push the sensor in until it touches the ring",
			"Pull the sensor back 0.5 mm",
			"Connect the cable and secure its routing",
		},
		RepairNotes: "Check that the exciter ring is intact and free of iron filings.",
	},
	{
		ID:          "coolant_sensor",
		CodeMatch:   []string{"MID128-PID111", "PID111", "COOLANT", "LIQUIDE", "WATER"},
		Name:        "Coolant Level Sensor",
		OEMRefs:     []string{"7421353473", "5010691880"},
		Location:    "Bottom of the expansion tank, engine left side",
		ImageURL:    "https://images.unsplash.com/photo-1635773054098-333c1b3c7b8e?auto=format&fit=crop&q=80&w=1200",
		DocumentRef: "Renault Manual 70 627 / Section 2: Cooling",
		Specs:       "Magnetic Switch Type. Voltage: 24V DC.",
		Removal: []string{
			"Partially drain the coolant",
			"Disconnect the electrical connector",
			"Turn the sensor 90 degrees counter-clockwise",
			"Pull the sensor out",
		},
		Assembly: []string{
			"Replace the O-ring with a new one",
			"Insert the sensor and turn it to lock",
			"Reconnect the plug",
			"Refill the coolant and run a test",
		},
		RepairNotes: "If the fault persists with a full tank, the magnetic float inside the tank may be faulty.",
	},
}
