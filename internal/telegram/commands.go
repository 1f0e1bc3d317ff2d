package telegram

import (
	"competitor-price-monitor/internal/cache"
	"competitor-price-monitor/internal/chart"
	"competitor-price-monitor/internal/types"
	"competitor-price-monitor/lib/helpers"
	"competitor-price-monitor/lib/translation"
	"context"
	"fmt"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"strconv"
	"strings"
	"time"
)

const chartCacheTTL = 5 * time.Minute

const helpMessage = `Competitor price monitor
/watch <product> [hourly|daily|weekly] [threshold%] [platform,...] - start watching a product
/unwatch <id> - remove a rule
/pause <id>, /resume <id> - stop or restart checks of a rule
/rules - list the rules
/stats - monitoring summary
/trend <product> - market trend
/history <product> - latest competitor prices
/chart <product> - price history chart`

// Commands implements the chat commands on top of the monitoring engine
type Commands struct {
	service Service
	charts  ChartRenderer
	cache   cache.Cache
	now     func() time.Time
}

func NewCommands(service Service, charts ChartRenderer, c cache.Cache) *Commands {
	if c == nil {
		c = cache.NewMemory()
	}
	return &Commands{service: service, charts: charts, cache: c, now: time.Now}
}

// tr translates a template, escapes it for MarkdownV2 and fills in already escaped arguments
func tr(msgID string, args ...interface{}) string {
	template := helpers.EscapeMarkdownV2(translation.Translate(msgID))
	if len(args) == 0 {
		return template
	}
	return fmt.Sprintf(template, args...)
}

func esc(s string) string {
	return helpers.EscapeMarkdownV2(s)
}

func bold(s string) string {
	return "*" + helpers.EscapeMarkdownV2(s) + "*"
}

// Handle runs a command and returns the reply
func (c *Commands) Handle(ctx context.Context, command, args string) Reply {
	log.Debugf("received command: %s %s", command, args)
	args = strings.TrimSpace(args)

	switch command {
	case "watch":
		return Reply{Text: c.watch(args)}
	case "unwatch":
		return Reply{Text: c.toggle(args, "unwatch")}
	case "pause":
		return Reply{Text: c.toggle(args, "pause")}
	case "resume":
		return Reply{Text: c.toggle(args, "resume")}
	case "rules":
		return c.listRules()
	case "stats":
		return Reply{Text: c.stats(ctx)}
	case "trend":
		if args == "" {
			return Reply{Text: tr("Please name a product, e.g. /trend Widget")}
		}
		return Reply{Text: FormatTrend(c.service.AnalyzeTrend(args))}
	case "history":
		if args == "" {
			return Reply{Text: tr("Please name a product, e.g. /trend Widget")}
		}
		return Reply{Text: FormatHistory(args, c.service.History(args))}
	case "chart":
		if args == "" {
			return Reply{Text: tr("Please name a product, e.g. /trend Widget")}
		}
		return c.chart(ctx, args)
	}

	return Reply{Text: tr(helpMessage)}
}

func (c *Commands) watch(args string) string {
	req, err := ParseWatchArguments(args)
	if err != nil {
		log.Debugf("invalid /watch arguments %q: %v", args, err)
		return tr("Usage: /watch <product> [hourly|daily|weekly] [threshold%] [platform,...]")
	}

	id := c.service.Registry().AddRule(req.Product, req.Platforms, req.Frequency, req.Threshold)
	rule, _ := c.service.Registry().Get(id)

	return tr("Watching %s (%s, alert at %s%%). Rule id: %s",
		bold(rule.ProductName),
		esc(string(rule.Frequency)),
		esc(strconv.FormatFloat(rule.PriceThreshold, 'f', -1, 64)),
		esc(rule.ID),
	)
}

// toggle handles the commands that take a rule id
func (c *Commands) toggle(id, action string) string {
	if id == "" {
		return tr("Please give a rule id, see /rules")
	}

	registry := c.service.Registry()
	var ok bool
	var msgID string
	switch action {
	case "unwatch":
		ok, msgID = registry.RemoveRule(id), "Rule %s removed"
	case "pause":
		ok, msgID = registry.Deactivate(id), "Rule %s paused"
	case "resume":
		ok, msgID = registry.Activate(id), "Rule %s resumed"
	}

	if !ok {
		return tr("No rule with id %s", esc(id))
	}
	return tr(msgID, esc(id))
}

// HandleCallback runs an inline keyboard action, data is "rule_<action>|<id>"
func (c *Commands) HandleCallback(data string) string {
	parts := strings.Split(data, "|")
	if len(parts) != 2 || !strings.HasPrefix(parts[0], "rule_") {
		return translation.Translate("Unknown action. Please try again.")
	}

	registry := c.service.Registry()
	id := parts[1]
	var ok bool
	switch strings.TrimPrefix(parts[0], "rule_") {
	case "pause":
		ok = registry.Deactivate(id)
	case "resume":
		ok = registry.Activate(id)
	case "unwatch":
		ok = registry.RemoveRule(id)
	default:
		return translation.Translate("Unknown action. Please try again.")
	}

	if !ok {
		return translation.Translate("This rule no longer exists.")
	}
	return translation.Translate("Done.")
}

func (c *Commands) listRules() Reply {
	all := c.service.Registry().List()
	if len(all) == 0 {
		return Reply{Text: tr("No monitoring rules yet. Add one with /watch")}
	}

	now := c.now()
	var b strings.Builder
	var buttons [][]tgbotapi.InlineKeyboardButton

	b.WriteString(tr("Monitoring rules:"))
	b.WriteString("\n")
	for _, rule := range all {
		status, action, label := "▶️", "pause", translation.Translate("Pause")
		if !rule.IsActive {
			status, action, label = "⏸", "resume", translation.Translate("Resume")
		}

		platforms := translation.Translate("all platforms")
		if len(rule.Platforms) > 0 {
			platforms = strings.Join(rule.Platforms, ", ")
		}

		b.WriteString(fmt.Sprintf("\n%s %s\n", status, bold(rule.ProductName)))
		b.WriteString(tr("%s, threshold %s%%, %s, checked %s",
			esc(string(rule.Frequency)),
			esc(strconv.FormatFloat(rule.PriceThreshold, 'f', -1, 64)),
			esc(platforms),
			esc(helpers.FormatAgo(rule.LastCheck, now)),
		))
		b.WriteString("\n" + esc("id: "+rule.ID) + "\n")

		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%s %s", label, rule.ProductName),
				fmt.Sprintf("rule_%s|%s", action, rule.ID),
			),
			tgbotapi.NewInlineKeyboardButtonData(
				translation.Translate("Remove"),
				fmt.Sprintf("rule_unwatch|%s", rule.ID),
			),
		))
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(buttons...)
	return Reply{Text: b.String(), Keyboard: &keyboard}
}

func (c *Commands) stats(ctx context.Context) string {
	s := c.service.Stats(ctx)
	return tr("Rules: %s (%s active)\nProducts: %s\nAlerts in the last 24h: %s\nAverage frequency: %s",
		bold(strconv.Itoa(s.TotalRules)),
		esc(strconv.Itoa(s.ActiveRules)),
		bold(strconv.Itoa(s.Products)),
		bold(strconv.Itoa(s.AlertsLast24h)),
		bold(translation.Translate(s.AverageFrequency)),
	)
}

func (c *Commands) chart(ctx context.Context, product string) Reply {
	key := "chart:" + strings.ToLower(product)
	caption := tr("%s competitor prices", bold(product))

	if data, found := c.cache.Get(ctx, key); found {
		log.Debugf("returning cached chart for %s", product)
		return Reply{Text: caption, Photo: data}
	}

	data, err := c.charts.RenderHistory(product, c.service.History(product))
	if errors.Is(err, chart.ErrNotEnoughData) {
		return Reply{Text: tr("Not enough history to draw a chart of %s yet", bold(product))}
	}
	if err != nil {
		log.Errorf("could not render chart of %s: %v", product, err)
		return Reply{Text: tr("Could not draw the chart, please try again later")}
	}

	c.cache.Set(ctx, key, data, chartCacheTTL)
	return Reply{Text: caption, Photo: data}
}

// ParseWatchArguments reads `<product> [frequency] [threshold] [platform,...]`.
// A product name with digits or frequency words can be quoted: "iPhone 15".
func ParseWatchArguments(args string) (WatchRequest, error) {
	var req WatchRequest
	args = strings.TrimSpace(args)

	var rest []string
	if strings.HasPrefix(args, `"`) {
		end := strings.Index(args[1:], `"`)
		if end < 0 {
			return req, errors.New("unterminated quote")
		}
		req.Product = strings.TrimSpace(args[1 : end+1])
		rest = strings.Fields(args[end+2:])
	} else {
		fields := strings.Fields(args)
		i := 0
		for ; i < len(fields); i++ {
			if _, ok := types.ParseFrequency(strings.ToLower(fields[i])); ok {
				break
			}
			if _, err := parseThreshold(fields[i]); err == nil {
				break
			}
		}
		req.Product = strings.Join(fields[:i], " ")
		rest = fields[i:]
	}

	if req.Product == "" {
		return req, errors.New("product name is required")
	}

	if len(rest) > 0 {
		if f, ok := types.ParseFrequency(strings.ToLower(rest[0])); ok {
			req.Frequency = f
			rest = rest[1:]
		}
	}
	if len(rest) > 0 {
		if threshold, err := parseThreshold(rest[0]); err == nil {
			req.Threshold = threshold
			rest = rest[1:]
		}
	}
	if len(rest) > 0 {
		for _, p := range strings.Split(rest[0], ",") {
			if p = strings.TrimSpace(p); p != "" {
				req.Platforms = append(req.Platforms, p)
			}
		}
		rest = rest[1:]
	}
	if len(rest) > 0 {
		return req, errors.Errorf("unexpected argument %q", rest[0])
	}

	return req, nil
}

func parseThreshold(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, errors.Errorf("threshold %s is not positive", s)
	}
	return v, nil
}

// FormatTrend renders a market trend as MarkdownV2
func FormatTrend(t types.MarketTrend) string {
	arrow := map[types.TrendDirection]string{
		types.TrendUp:     "📈",
		types.TrendDown:   "📉",
		types.TrendStable: "➡️",
	}[t.TrendDirection]

	var b strings.Builder
	b.WriteString(tr("%s trend: %s %s\nAverage price: %s\n24h: %s\n7d: %s\n30d: %s\nVolatility: %s%%",
		bold(t.ProductName),
		esc(translation.Translate(string(t.TrendDirection))),
		arrow,
		bold(helpers.FormatPriceUS(t.AvgPrice, false)),
		esc(helpers.FormatPercentage(t.PriceChange24h, false)),
		esc(helpers.FormatPercentage(t.PriceChange7d, false)),
		esc(helpers.FormatPercentage(t.PriceChange30d, false)),
		esc(strconv.FormatFloat(t.Volatility, 'f', 2, 64)),
	))
	if t.Simulated {
		b.WriteString("\n_" + tr("estimated, no prices recorded yet") + "_")
	}
	if len(t.Opportunities) > 0 {
		b.WriteString("\n\n" + tr("Opportunities:"))
		for _, o := range t.Opportunities {
			b.WriteString("\n• " + esc(translation.Translate(o)))
		}
	}
	return b.String()
}

// FormatHistory renders the latest price of every series of a product
func FormatHistory(product string, histories []types.PriceHistory) string {
	if len(histories) == 0 {
		return tr("No prices recorded for %s yet", bold(product))
	}

	var b strings.Builder
	b.WriteString(tr("Price history of %s:", bold(product)))
	for _, h := range histories {
		if len(h.Prices) == 0 {
			continue
		}
		last := h.Prices[len(h.Prices)-1]
		b.WriteString("\n" + tr("%s / %s: %s (%s entries, last %s)",
			esc(h.Platform),
			esc(h.Seller),
			bold(helpers.FormatPriceUS(last.Price, false)),
			esc(strconv.Itoa(len(h.Prices))),
			esc(helpers.FormatDate(last.Timestamp)),
		))
	}
	return b.String()
}

// FormatAlert renders an alert notification as MarkdownV2
func FormatAlert(a types.Alert) string {
	icon := "🔔"
	if a.Severity == types.SeverityHigh {
		icon = "🚨"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s %s\n", icon, bold(a.Title)))
	b.WriteString(esc(a.Message))
	b.WriteString("\n" + tr("Platform: %s, change: %s, severity: %s",
		esc(a.Platform),
		bold(helpers.FormatPercentage(a.ChangePercent, false)),
		esc(translation.Translate(string(a.Severity))),
	))
	if a.SuggestedAction != "" {
		b.WriteString("\n👉 " + esc(a.SuggestedAction))
	}
	return b.String()
}
