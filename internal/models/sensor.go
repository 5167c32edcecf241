package models

// SensorData 传感器资料
type SensorData struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Code        string   `json:"code"`
	Function    string   `json:"function"`
	Location    string   `json:"location"`
	Symptoms    []string `json:"symptoms"`
	Description string   `json:"description"`
}
