package redis

import "fmt"

const (
	// IngredientsKey is the hash of created ingredients, field = ingredient name, value = JSON
	IngredientsKey = "paintmix:ingredients"

	// ResultsKey is the list of mixed results, newest first
	ResultsKey = "paintmix:results"
)

// WeatherKey returns the key holding the latest reading for a city
// Pattern: weather:latest:{city}
func WeatherKey(city string) string {
	return fmt.Sprintf("weather:latest:%s", city)
}
