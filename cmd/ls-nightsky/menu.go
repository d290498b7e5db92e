package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/litescript/ls-nightsky/internal/conditions"
	"github.com/litescript/ls-nightsky/internal/report"
)

// menuStarLimit is how many stars the menu's star listing shows.
const menuStarLimit = 10

const menuOptions = `
Options:
1. View current report
2. Get moon phase info
3. Get planet positions
4. Get visible stars
5. Get observing conditions
6. Exit
`

// runMenu asks for a location, prints the full report and then answers
// numbered queries until the user picks Exit or input ends. Query
// failures are printed and the menu continues.
func runMenu(ctx context.Context, a *app, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	readLine := func(prompt string) (string, bool) {
		fmt.Fprint(out, prompt)
		if !sc.Scan() {
			return "", false
		}
		return strings.TrimSpace(sc.Text()), true
	}

	fmt.Fprintln(out, "Welcome to ls-nightsky!")
	fmt.Fprintln(out)

	def := a.engine.Location()
	label := def.Name
	if label == "" {
		label = def.String()
	}
	latStr, ok := readLine(fmt.Sprintf("Enter your latitude (or press Enter for %s): ", label))
	if !ok {
		return sc.Err()
	}
	lonStr, ok := readLine(fmt.Sprintf("Enter your longitude (or press Enter for %s): ", label))
	if !ok {
		return sc.Err()
	}
	if latStr != "" || lonStr != "" {
		if err := setMenuLocation(a.engine, def, latStr, lonStr); err != nil {
			fmt.Fprintf(out, "Invalid input. Using default location (%s).\n", label)
		}
	}

	fmt.Fprintln(out)
	menuReport(ctx, a, out)

	for {
		fmt.Fprint(out, menuOptions)
		choice, ok := readLine("\nEnter your choice (1-6): ")
		if !ok {
			return sc.Err()
		}
		fmt.Fprintln(out)

		switch choice {
		case "1":
			menuReport(ctx, a, out)
		case "2":
			m, err := a.engine.MoonState(ctx, a.now())
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				continue
			}
			report.WriteMoon(out, m, a.zone(m.Time))
		case "3":
			p, err := a.engine.VisiblePlanets(ctx, a.now())
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				continue
			}
			report.WritePlanets(out, p)
		case "4":
			stars, err := a.engine.VisibleStars(ctx, a.now(), a.cfg.Stars.MaxMagnitude)
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				continue
			}
			fmt.Fprintf(out, "Visible Bright Stars (%d total):\n", len(stars))
			if len(stars) > menuStarLimit {
				stars = stars[:menuStarLimit]
			}
			for _, s := range stars {
				fmt.Fprintf(out, "%s (%s): Mag %.2f\n", s.Name, s.Constellation, s.Mag)
			}
		case "5":
			c, err := a.engine.ObservingConditions(ctx, a.now())
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				continue
			}
			report.WriteConditions(out, c)
		case "6":
			fmt.Fprintln(out, "Thank you for using ls-nightsky!")
			return nil
		default:
			fmt.Fprintln(out, "Invalid choice. Please try again.")
		}
	}
}

// setMenuLocation moves the engine to the entered coordinates. A blank
// field keeps the default's value.
func setMenuLocation(eng *conditions.Engine, def conditions.Location, latStr, lonStr string) error {
	lat, lon := def.Latitude, def.Longitude
	var err error
	if latStr != "" {
		if lat, err = strconv.ParseFloat(latStr, 64); err != nil {
			return fmt.Errorf("%w: latitude %q", conditions.ErrInvalidLocation, latStr)
		}
	}
	if lonStr != "" {
		if lon, err = strconv.ParseFloat(lonStr, 64); err != nil {
			return fmt.Errorf("%w: longitude %q", conditions.ErrInvalidLocation, lonStr)
		}
	}
	return eng.SetLocation(lat, lon)
}

func menuReport(ctx context.Context, a *app, out io.Writer) {
	r, err := a.engine.Report(ctx, a.now(), a.cfg.Stars.MaxMagnitude)
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return
	}
	report.WriteReport(out, r, a.zone(r.Time))
}
