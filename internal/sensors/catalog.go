// Package sensors DXi 发动机传感器资料
package sensors

import (
	"strings"

	"github.com/langchou/smartmechanic/internal/models"
)

// Catalog 内置传感器列表
var Catalog = []models.SensorData{
	{
		ID:          "oil_pressure",
		Name:        "Oil Pressure Sensor",
		Code:        "MID 128 PID 100",
		Function:    "Measures engine lubrication oil pressure",
		Location:    "Engine block, left side next to the oil filter housing",
		Symptoms:    []string{"Low oil pressure warning", "Engine derate", "Erratic gauge reading"},
		Description: "Combined pressure and temperature sensor feeding the engine ECU. A reading below threshold triggers an immediate stop request.",
	},
	{
		ID:          "boost_pressure",
		Name:        "Boost Pressure Sensor",
		Code:        "MID 128 PID 102",
		Function:    "Measures turbo boost pressure in the intake manifold",
		Location:    "Intake manifold, after the charge air cooler",
		Symptoms:    []string{"Loss of power", "Black smoke", "Turbo boost fault lamp"},
		Description: "Also reports charge air temperature (PID 105). Used by the ECU to limit fuelling when boost is low.",
	},
	{
		ID:          "charge_air_temp",
		Name:        "Charge Air Temperature Sensor",
		Code:        "MID 128 PID 105",
		Function:    "Measures intake air temperature after the turbo",
		Location:    "Intake manifold, integrated in the boost pressure sensor",
		Symptoms:    []string{"Hard starting in cold weather", "Reduced power"},
		Description: "NTC element shared with the boost pressure sensor body.",
	},
	{
		ID:          "coolant_temp",
		Name:        "Coolant Temperature Sensor",
		Code:        "MID 128 PID 110",
		Function:    "Measures engine coolant temperature",
		Location:    "Cylinder head, thermostat housing side",
		Symptoms:    []string{"Overheating warning", "Fan running constantly", "Incorrect temperature gauge"},
		Description: "NTC thermistor. Its signal controls the viscous fan and engine protection strategy.",
	},
	{
		ID:          "coolant_level",
		Name:        "Coolant Level Sensor",
		Code:        "MID 128 PID 111",
		Function:    "Detects low coolant level in the expansion tank",
		Location:    "Bottom of the expansion tank, engine left side",
		Symptoms:    []string{"Low coolant warning with full tank", "Intermittent stop lamp"},
		Description: "Magnetic reed switch with a float inside the tank.",
	},
	{
		ID:          "fuel_pressure",
		Name:        "Fuel Feed Pressure Sensor",
		Code:        "MID 128 PID 94",
		Function:    "Measures low pressure fuel supply to the unit injectors",
		Location:    "Fuel filter housing, engine left side",
		Symptoms:    []string{"Engine stalls under load", "Hard starting", "Low fuel pressure warning"},
		Description: "A low reading usually points to a clogged filter or air in the fuel system.",
	},
	{
		ID:          "water_in_fuel",
		Name:        "Water In Fuel Sensor",
		Code:        "MID 128 PID 97",
		Function:    "Detects water in the fuel pre-filter",
		Location:    "Bottom of the water separator bowl",
		Symptoms:    []string{"Water in fuel warning"},
		Description: "Drain the separator and check the heater circuit when the warning persists.",
	},
	{
		ID:          "oil_level",
		Name:        "Oil Level Sensor",
		Code:        "MID 128 PID 98",
		Function:    "Measures the engine oil level in the sump",
		Location:    "Oil sump, front section",
		Symptoms:    []string{"Low oil level message on the dash"},
		Description: "Thermal type sensor. Check level only with the engine stopped for several minutes.",
	},
	{
		ID:          "oil_temp",
		Name:        "Oil Temperature Sensor",
		Code:        "MID 128 PID 175",
		Function:    "Measures engine oil temperature",
		Location:    "Oil filter housing",
		Symptoms:    []string{"High oil temperature warning"},
		Description: "Reading is used together with oil pressure for engine protection.",
	},
	{
		ID:          "camshaft_position",
		Name:        "Camshaft Position Sensor",
		Code:        "MID 128 SID 21",
		Function:    "Detects camshaft position for injection timing",
		Location:    "Timing cover, rear of the cylinder head",
		Symptoms:    []string{"Long cranking time", "Engine does not start", "Misfire"},
		Description: "Inductive sensor reading the camshaft gear teeth.",
	},
	{
		ID:          "flywheel_speed",
		Name:        "Engine Speed Sensor (Flywheel)",
		Code:        "MID 128 SID 22",
		Function:    "Measures crankshaft speed and position",
		Location:    "Flywheel housing, lower left",
		Symptoms:    []string{"Engine cuts out", "No start", "Tachometer drops to zero"},
		Description: "Inductive sensor. Check the air gap and the flywheel teeth for damage.",
	},
	{
		ID:          "vehicle_speed",
		Name:        "Vehicle Speed Sensor",
		Code:        "MID 144 PID 84",
		Function:    "Measures road speed at the gearbox output shaft",
		Location:    "Gearbox output, rear housing",
		Symptoms:    []string{"Speedometer not working", "Cruise control unavailable", "Tachograph fault"},
		Description: "Signal is shared by the VECU and the tachograph.",
	},
	{
		ID:          "wheel_speed",
		Name:        "Wheel Speed Sensor (ABS/EBS)",
		Code:        "MID 136 SID 1-4",
		Function:    "Measures individual wheel speed for ABS and EBS",
		Location:    "Behind the wheel hub, in a brass sleeve",
		Symptoms:    []string{"ABS warning lamp", "EBS fault", "Traction control disabled"},
		Description: "Resistance 1.1 - 1.3 kOhm. Push fully in and pull back 0.5 mm after fitting.",
	},
}

// Filter 按名称、代码或功能过滤，不区分大小写，空搜索词返回全部
func Filter(term string) []models.SensorData {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]models.SensorData, 0, len(Catalog))
	for _, s := range Catalog {
		if term == "" ||
			strings.Contains(strings.ToLower(s.Name), term) ||
			strings.Contains(strings.ToLower(s.Code), term) ||
			strings.Contains(strings.ToLower(s.Function), term) {
			out = append(out, s)
		}
	}
	return out
}

// Get 按 ID 查找传感器
func Get(id string) (models.SensorData, bool) {
	for _, s := range Catalog {
		if s.ID == id {
			return s, true
		}
	}
	return models.SensorData{}, false
}
