package render

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"strconv"

	"golang.org/x/image/colornames"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/they4kman/gosweep/game"
)

const (
	cellWidth    = 16
	headerHeight = 50
	minWidth     = 200
)

var numberColors = map[game.CellState]color.RGBA{
	game.Number1: colornames.Blue,
	game.Number2: colornames.Green,
	game.Number3: colornames.Red,
	game.Number4: colornames.Darkblue,
	game.Number5: colornames.Darkred,
	game.Number6: colornames.Darkcyan,
	game.Number7: colornames.Black,
	game.Number8: colornames.Gray,
}

// PNG draws the view as an image: the header line on top, one square per
// cell below.
func PNG(w io.Writer, view game.BoardView) error {
	return png.Encode(w, Image(view))
}

func Image(view game.BoardView) *image.RGBA {
	width := view.Cols() * cellWidth
	if width < minWidth {
		width = minWidth
	}
	img := image.NewRGBA(image.Rect(0, 0, width, headerHeight+view.Rows()*cellWidth))
	draw.Draw(img, img.Bounds(), image.NewUniform(colornames.Gainsboro), image.Point{}, draw.Src)

	drawText(img, view.Header(), 20, 30, headerColor(view))

	for row, states := range view.Cells {
		for col, state := range states {
			drawCell(img, image.Pt(col*cellWidth, headerHeight+row*cellWidth), state)
		}
	}
	return img
}

func headerColor(view game.BoardView) color.RGBA {
	switch {
	case view.Status == game.Won:
		return colornames.Green
	case view.Status == game.Lost:
		return colornames.Red
	case view.LowTime():
		return colornames.Orangered
	default:
		return colornames.Black
	}
}

func drawCell(img *image.RGBA, topLeft image.Point, state game.CellState) {
	bounds := image.Rectangle{Min: topLeft, Max: topLeft.Add(image.Pt(cellWidth, cellWidth))}
	inner := bounds.Inset(1)

	draw.Draw(img, bounds, image.NewUniform(colornames.Dimgray), image.Point{}, draw.Src)

	background := colornames.Silver
	switch {
	case state.IsNumber():
		background = colornames.Whitesmoke
	case state == game.MineLosing:
		background = colornames.Red
	case state == game.MineUnrevealed:
		background = colornames.Lightpink
	case state == game.FlagWrong:
		background = colornames.Orange
	}
	draw.Draw(img, inner, image.NewUniform(background), image.Point{}, draw.Src)

	label, fg := "", colornames.Black
	switch {
	case state.IsNumber() && state != game.Empty:
		label, fg = strconv.Itoa(int(state)), numberColors[state]
	case state == game.Flag:
		label, fg = "F", colornames.Darkred
	case state == game.FlagWrong:
		label = "X"
	case state == game.MineUnrevealed, state == game.MineLosing:
		label = "*"
	}
	if label != "" {
		drawText(img, label, topLeft.X+5, topLeft.Y+12, fg)
	}
}

func drawText(img *image.RGBA, text string, x, y int, c color.Color) {
	drawer := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	drawer.DrawString(text)
}
