package constants

import "time"

const (
	// GridCols is the default number of columns on the board
	GridCols int = 20
	// GridRows is the default number of rows on the board
	GridRows int = 10

	// SnakeStartingX is the x coordinate of the initial single-segment snake
	SnakeStartingX int = 2
	// SnakeStartingY is the y coordinate of the initial single-segment snake
	SnakeStartingY int = 2

	// FoodStartingX is the x coordinate of the initial food
	FoodStartingX int = 16
	// FoodStartingY is the y coordinate of the initial food
	FoodStartingY int = 2

	// TickInterval is the default time between game ticks
	TickInterval time.Duration = 200 * time.Millisecond

	// CollisionExemptSegments is the number of leading segments (head included)
	// that are never checked against the head for self-collision
	CollisionExemptSegments int = 3
)
