// Command widget hosts the chat widget in a terminal. It expands a live
// session against a backend agent, or runs the designer preview, and renders
// the conversation with a channel skin.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"

	"github.com/xiaot623/gogo/widget/internal/backend"
	"github.com/xiaot623/gogo/widget/internal/config"
	"github.com/xiaot623/gogo/widget/internal/conn"
	"github.com/xiaot623/gogo/widget/internal/customization"
	"github.com/xiaot623/gogo/widget/internal/embed"
	"github.com/xiaot623/gogo/widget/internal/skin"
	"github.com/xiaot623/gogo/widget/internal/widget"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	flag.StringVar(&cfg.BackendURL, "backend", cfg.BackendURL, "Backend base URL")
	flag.StringVar(&cfg.CompanyID, "company", cfg.CompanyID, "Company ID")
	flag.StringVar(&cfg.AgentID, "agent", cfg.AgentID, "Agent ID")
	flag.StringVar(&cfg.SessionID, "session", cfg.SessionID, "Session ID (random when empty)")
	flag.StringVar(&cfg.Skin, "skin", cfg.Skin, "Channel skin: "+strings.Join(skin.Names(), ", "))
	flag.BoolVar(&cfg.RTL, "rtl", cfg.RTL, "Right-to-left layout")
	flag.StringVar(&cfg.CustomizationFile, "customization", cfg.CustomizationFile, "YAML customization file")
	preview := flag.Bool("preview", false, "Run the designer preview instead of a live session")
	publish := flag.Bool("publish", false, "Save the customization file to the backend before starting")
	page := flag.String("embed", "", "Read widget settings from the script tag of an HTML page")
	snippet := flag.String("snippet", "", "Print the embed snippet for this script URL and exit")
	width := flag.Int("width", skin.DefaultWidth, "Render width")
	flag.Parse()

	log.SetFlags(log.Ltime)

	position := ""
	if *page != "" {
		ec, err := readEmbed(*page)
		if err != nil {
			log.Fatalf("Failed to read embed config: %v", err)
		}
		cfg.AgentID = ec.AgentID
		cfg.CompanyID = ec.CompanyID
		if ec.BackendURL != "" {
			cfg.BackendURL = ec.BackendURL
		}
		cfg.RTL = ec.RTL
		cfg.Language = ec.Language
		position = ec.Position
	}

	if *snippet != "" {
		fmt.Print(embed.Snippet(embed.Config{
			AgentID:    cfg.AgentID,
			CompanyID:  cfg.CompanyID,
			BackendURL: cfg.BackendURL,
			RTL:        cfg.RTL,
			Language:   cfg.Language,
			Position:   position,
		}, *snippet))
		return
	}

	if cfg.SessionID == "" {
		cfg.SessionID = uuid.New().String()
	}

	client := backend.NewClient(cfg.BackendURL, cfg.RequestTimeout)
	cust := loadCustomization(cfg, client, *preview)
	if position != "" {
		cust.Position = position
	}

	if *publish {
		if err := client.SaveCustomization(context.Background(), cfg.AgentID, cust); err != nil {
			log.Fatalf("Failed to publish customization: %v", err)
		}
		log.Printf("Customization published for agent %s", cfg.AgentID)
	}

	s, err := skin.Lookup(cfg.Skin)
	if err != nil {
		log.Fatalf("Invalid skin: %v", err)
	}

	h := &host{
		out:     os.Stdout,
		skin:    s,
		cust:    cust,
		rtl:     cfg.RTL,
		width:   *width,
		preview: *preview,
	}

	var sess session
	var pv *widget.Preview
	if *preview {
		pv = widget.NewPreview(cust, cfg.PreviewDelay, h.render)
		sess = previewSession{pv}
	} else {
		if err := cfg.Validate(); err != nil {
			log.Fatalf("Invalid config: %v", err)
		}
		ctrl, err := widget.New(widget.Options{
			Identity: conn.Identity{
				CompanyID: cfg.CompanyID,
				AgentID:   cfg.AgentID,
				SessionID: cfg.SessionID,
			},
			BackendURL: cfg.BackendURL,
			Conn: conn.Options{
				DialTimeout:    cfg.DialTimeout,
				PingInterval:   cfg.PingInterval,
				WriteTimeout:   cfg.WriteTimeout,
				ReadTimeout:    cfg.ReadTimeout,
				MaxMessageSize: cfg.MaxMessageSize,
			},
			Handoff:  client,
			OnChange: h.render,
			OnNotify: h.notify,
		})
		if err != nil {
			log.Fatalf("Failed to create widget: %v", err)
		}
		log.Printf("Session %s at %s (language: %s)", cfg.SessionID, ctrl.Address(), cfg.Language)
		sess = ctrl
	}

	fmt.Println(helpText)
	h.render(sess.View())

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		fmt.Println("\nInterrupted")
		sess.Collapse()
		os.Exit(0)
	}()

	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		cmd := parseCommand(scanner.Text())
		switch cmd.name {
		case "":
			if cmd.args == "" {
				continue
			}
			if err := sess.SendText(cmd.args); err != nil {
				log.Printf("Send error: %v", err)
			}

		case "quit":
			sess.Collapse()
			fmt.Println("Bye!")
			return

		case "expand":
			if err := sess.Expand(ctx); err != nil {
				log.Printf("Expand failed: %v", err)
			}

		case "collapse":
			sess.Collapse()

		case "form":
			values, err := parseFormValues(cmd.args)
			if err != nil {
				log.Printf("Invalid form input: %v", err)
				continue
			}
			if err := sess.SubmitForm(values); err != nil {
				log.Printf("Form error: %v", err)
			}

		case "handoff":
			if err := sess.Handoff(ctx); err != nil {
				log.Printf("Handoff error: %v", err)
			}

		case "skin":
			next, err := skin.Lookup(cmd.args)
			if err != nil {
				log.Printf("%v", err)
				continue
			}
			h.setSkin(next)
			h.render(sess.View())

		case "reload":
			if pv == nil || cfg.CustomizationFile == "" {
				log.Printf("Reload needs -preview and -customization")
				continue
			}
			next, err := customization.LoadFile(cfg.CustomizationFile)
			if err != nil {
				log.Printf("Failed to reload customization: %v", err)
				continue
			}
			h.setCustomization(next)
			pv.SetCustomization(next)

		case "status":
			v := sess.View()
			fmt.Printf("expanded=%v state=%s messages=%d\n", v.Expanded, v.Status.State, len(v.Messages))
			if v.Status.Reason != nil {
				fmt.Printf("last disconnect: %v\n", v.Status.Reason)
			}

		case "help":
			fmt.Println(helpText)

		default:
			log.Printf("Unknown command /%s", cmd.name)
		}
	}
	sess.Collapse()
}

func readEmbed(path string) (*embed.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return embed.Parse(f)
}

// loadCustomization returns the local file if given, else what the backend
// has saved for the agent (live sessions only), else the defaults.
func loadCustomization(cfg *config.Config, client *backend.Client, preview bool) customization.Customization {
	cust := customization.Default()

	if !preview && cfg.AgentID != "" {
		saved, err := client.GetCustomization(context.Background(), cfg.AgentID)
		if err == nil {
			err = saved.Validate()
		}
		if err != nil {
			log.Printf("Using default customization: %v", err)
		} else {
			cust = saved
		}
	}

	if cfg.CustomizationFile != "" {
		fromFile, err := customization.LoadFile(cfg.CustomizationFile)
		if err != nil {
			log.Fatalf("Failed to load customization file: %v", err)
		}
		cust = fromFile
	}
	return cust
}
