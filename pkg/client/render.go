package client

import (
	"fmt"
	"io"
	"strings"

	"github.com/cbodonnell/snake/pkg/messages"
)

// Render draws a game update as text. The head is @, the body o and the food *.
// Segments off the board are not drawn.
func Render(w io.Writer, update *messages.ServerGameUpdate) error {
	grid := make([][]byte, update.Rows)
	for y := range grid {
		grid[y] = []byte(strings.Repeat(".", update.Cols))
	}
	put := func(x, y int, b byte) {
		if x < 0 || y < 0 || y >= update.Rows || x >= update.Cols {
			return
		}
		grid[y][x] = b
	}

	put(update.Food.X, update.Food.Y, '*')
	for i := len(update.Snake) - 1; i > 0; i-- {
		put(update.Snake[i].X, update.Snake[i].Y, 'o')
	}
	if len(update.Snake) > 0 {
		put(update.Snake[0].X, update.Snake[0].Y, '@')
	}

	var sb strings.Builder
	for _, row := range grid {
		sb.Write(row)
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "length %d  direction %s  %s\n", len(update.Snake), update.Direction, update.Boundary)

	_, err := io.WriteString(w, sb.String())
	return err
}
