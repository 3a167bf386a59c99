// Terminal stand-in for the browser widget: connects to a running server,
// prints server messages, and sends each input line through the same
// debounce/reconnect protocol the embedded widget uses.
package main

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"fortuneone-chat-backend/internal/types"
	"fortuneone-chat-backend/internal/widgetclient"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	url := "ws://localhost:4000/ws"
	if v := os.Getenv("FORTUNEONE_WS_URL"); v != "" {
		url = v
	}
	if biz := os.Getenv("FORTUNEONE_BUSINESS_ID"); biz != "" {
		url += "?business_id=" + biz
	}

	c := widgetclient.New(url,
		widgetclient.WithLanguage(os.Getenv("FORTUNEONE_LANGUAGE")),
		widgetclient.WithOnMessage(func(m types.ServerTextOutput) {
			fmt.Printf("\n< %s\n", m.Content)
			for _, s := range m.Slots {
				fmt.Printf("  slot %s bookable=%v\n", s.Time, s.Bookable)
			}
			if m.BookingConfirmation != nil {
				fmt.Printf("  booked %s at %s (%s)\n",
					m.BookingConfirmation.BookingID,
					m.BookingConfirmation.Time,
					m.BookingConfirmation.ServiceName)
			}
			if m.Error != "" {
				fmt.Printf("  error: %s\n", m.Error)
			}
			fmt.Print("> ")
		}),
		widgetclient.WithOnStateChange(func(s widgetclient.State) {
			log.Info().Str("state", string(s)).Msg("connection state")
			if s == widgetclient.StateFailed {
				fmt.Fprintln(os.Stderr, "connection lost for good, giving up")
				os.Exit(1)
			}
		}),
	)
	defer c.Close()
	c.Connect()

	fmt.Print("> ")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			c.Send(line)
		}
	}
}
