package model

// OpenWeatherCondition is the repeated weather block in OpenWeatherMap payloads.
type OpenWeatherCondition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// OpenWeatherMain carries the temperature/humidity block.
type OpenWeatherMain struct {
	Temp     float64 `json:"temp"`
	Humidity float64 `json:"humidity"`
}

// OpenWeatherCurrentResponse is the current-conditions payload.
type OpenWeatherCurrentResponse struct {
	Name  string `json:"name"`
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Main    OpenWeatherMain        `json:"main"`
	Weather []OpenWeatherCondition `json:"weather"`
}

// OpenWeatherForecastSample is one 3-hourly forecast sample.
type OpenWeatherForecastSample struct {
	Dt      int64                  `json:"dt"`
	Main    OpenWeatherMain        `json:"main"`
	Weather []OpenWeatherCondition `json:"weather"`
}

// OpenWeatherForecastResponse is the 5-day/3-hour forecast payload.
type OpenWeatherForecastResponse struct {
	City struct {
		Name  string `json:"name"`
		Coord struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"coord"`
	} `json:"city"`
	List []OpenWeatherForecastSample `json:"list"`
}
