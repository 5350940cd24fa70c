// Package summary turns query results into a short spoken-style answer.
package summary

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"voicebank/internal/intent"
	"voicebank/internal/models"
)

const NoResults = "I couldn't find any transactions matching your query. Try asking about a different category or time period."

type Synthesizer interface {
	Synthesize(ctx context.Context, in intent.Intent, rows models.QueryResult, text string) (string, error)
}

// Clock returns the current time. Only the day of month is used.
type Clock func() time.Time

// TemplateSynthesizer composes answers from fixed templates: a lead-in with
// count and total, an optional breakdown and one closing advisory chosen by
// amount bands.
type TemplateSynthesizer struct {
	now Clock
}

func NewTemplateSynthesizer(now Clock) *TemplateSynthesizer {
	if now == nil {
		now = time.Now
	}
	return &TemplateSynthesizer{now: now}
}

func (s *TemplateSynthesizer) Synthesize(_ context.Context, in intent.Intent, rows models.QueryResult, text string) (string, error) {
	return s.Compose(in, rows, text), nil
}

// Compose is Synthesize without the context; it cannot fail. Raw-text
// checks run before the intent label, so "upi payments over 500" gets the
// above-amount answer and "upi" text classified elsewhere gets the UPI one.
func (s *TemplateSynthesizer) Compose(in intent.Intent, rows models.QueryResult, text string) string {
	if len(rows) == 0 {
		return NoResults
	}

	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "all") && strings.Contains(lower, "transaction"):
		return allTransactions(rows)
	case strings.Contains(lower, "above") || strings.Contains(lower, "over"):
		return aboveAmount(rows, intent.ExtractThreshold(text))
	case strings.Contains(lower, "upi"):
		return upiPayments(rows)
	}

	day := s.dayOfMonth()
	switch in.Kind {
	case intent.TopExpenses:
		return topExpenses(rows)
	case intent.ByCategory:
		return byCategory(rows)
	case intent.Food:
		return food(rows, day)
	case intent.HighestCategory:
		return highest(rows, day)
	case intent.Recent:
		return recent(rows)
	case intent.Total:
		return total(rows, day)
	default:
		return fallback(rows, day)
	}
}

func (s *TemplateSynthesizer) dayOfMonth() int64 {
	return int64(s.now().Day())
}

func div(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func round(f float64) int64 {
	return int64(math.Round(f))
}

func sumAmount(rows models.QueryResult) int64 {
	var sum int64
	for _, r := range rows {
		sum += r.Int("amount")
	}
	return sum
}

func sumTotal(rows models.QueryResult) int64 {
	var sum int64
	for _, r := range rows {
		sum += r.Int("total")
	}
	return sum
}

// tally accumulates per-key values, remembering first-seen order.
type tally struct {
	keys   []string
	values map[string]int64
}

func newTally() *tally {
	return &tally{values: map[string]int64{}}
}

func (t *tally) add(key string, v int64) {
	if _, ok := t.values[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.values[key] += v
}

// top returns the largest key; on a tie the later key wins.
func (t *tally) top() (string, int64) {
	if len(t.keys) == 0 {
		return "", 0
	}
	best := t.keys[0]
	for _, k := range t.keys[1:] {
		if !(t.values[best] > t.values[k]) {
			best = k
		}
	}
	return best, t.values[best]
}

func allTransactions(rows models.QueryResult) string {
	sum := sumAmount(rows)
	cats := newTally()
	for _, r := range rows {
		cats.add(r.String("category"), r.Int("amount"))
	}
	top, topSpend := cats.top()

	var b strings.Builder
	fmt.Fprintf(&b, "Hey! So I checked your transactions and found %d of them, totaling %d rupees. ", len(rows), sum)
	fmt.Fprintf(&b, "Looks like you're spending the most on %s, about %d rupees. ", top, topSpend)

	if float64(topSpend) > float64(sum)*0.4 {
		fmt.Fprintf(&b, "Heads up though - %s is taking up %d%% of your budget! Maybe we should look at cutting back a bit there?", top, round(div(float64(topSpend), float64(sum))*100))
	} else {
		b.WriteString("Good news is your spending looks pretty balanced across different categories!")
	}
	return b.String()
}

func aboveAmount(rows models.QueryResult, threshold int64) string {
	sum := sumAmount(rows)
	count := len(rows)

	var b strings.Builder
	fmt.Fprintf(&b, "Alright, so I found %d transactions over %d rupees, and they add up to %d rupees total. ", count, threshold, sum)

	switch {
	case count > 10:
		b.WriteString("Whoa, that's quite a few big purchases! Maybe take a closer look at these and see where you can save some money?")
	case sum > 20000:
		b.WriteString("These bigger expenses really add up, don't they? Worth thinking about which ones were really necessary.")
	default:
		b.WriteString("Not bad! Your big purchases seem pretty reasonable.")
	}
	return b.String()
}

func upiPayments(rows models.QueryResult) string {
	sum := sumAmount(rows)
	count := len(rows)
	avg := round(div(float64(sum), float64(count)))

	var b strings.Builder
	fmt.Fprintf(&b, "So you've made %d UPI payments, and they total up to %d rupees. ", count, sum)
	fmt.Fprintf(&b, "On average, each UPI payment is around %d rupees. ", avg)

	switch {
	case count > 20:
		b.WriteString("You're really loving that UPI, huh? That's actually great because it makes tracking your spending super easy!")
	case avg > 1000:
		b.WriteString("Your UPI payments are on the higher side. Just make sure you're keeping an eye on each one!")
	default:
		b.WriteString("Your UPI game is looking solid! Keep it up!")
	}
	return b.String()
}

func topExpenses(rows models.QueryResult) string {
	sum := sumTotal(rows)
	top := rows[0]
	pct := round(div(float64(top.Int("total")), float64(sum)) * 100)

	var b strings.Builder
	fmt.Fprintf(&b, "Okay, so your biggest expense is %s at %d rupees - that's like %d%% of everything you've spent! ", top.String("beneficiary"), top.Int("total"), pct)

	if len(rows) > 1 {
		fmt.Fprintf(&b, "After that, it's %s at %d rupees", rows[1].String("beneficiary"), rows[1].Int("total"))
		if len(rows) > 2 {
			fmt.Fprintf(&b, ", and then %s at %d rupees", rows[2].String("beneficiary"), rows[2].Int("total"))
		}
		b.WriteString(". ")
	}

	if top.Int("total") > 5000 {
		fmt.Fprintf(&b, "That's a pretty big chunk! Maybe set a monthly limit for %s so you can keep track better?", top.String("beneficiary"))
	} else {
		b.WriteString("Looking good! Your spending is nicely spread out across different places.")
	}
	return b.String()
}

func byCategory(rows models.QueryResult) string {
	sum := sumTotal(rows)
	top := rows[0]
	name, spent := top.String("category"), top.Int("total")
	pct := round(div(float64(spent), float64(sum)) * 100)

	var b strings.Builder
	fmt.Fprintf(&b, "Alright, so you've spent %d rupees across %d different categories. ", sum, len(rows))
	fmt.Fprintf(&b, "%s is where most of your money's going - %d rupees, which is about %d%% of everything. ", name, spent, pct)

	if len(rows) > 1 {
		parts := make([]string, 0, 3)
		for _, r := range rows[:min(3, len(rows))] {
			parts = append(parts, fmt.Sprintf("%s at %d rupees", r.String("category"), r.Int("total")))
		}
		fmt.Fprintf(&b, "Your top three are: %s. ", strings.Join(parts, ", "))
	}

	b.WriteString(categoryAdvice(name, spent, pct))
	return b.String()
}

func categoryAdvice(category string, spent, pct int64) string {
	switch category {
	case models.CategoryFood:
		switch {
		case spent > 15000:
			return fmt.Sprintf("Whoa, %d rupees on food is pretty steep! I'd say aim for around 10000. Try cooking at home more - you could save like 40-50%%!", spent)
		case spent > 10000:
			return "Your food spending's a bit high. Here's a tip: meal prep on Sundays! You could easily save 3000-4000 rupees a month."
		default:
			return "Nice! Your food budget is looking really good!"
		}
	case models.CategoryShopping:
		switch {
		case spent > 20000:
			return fmt.Sprintf("Okay, real talk - %dk on shopping is way too much! Time to cut back on those impulse buys, friend.", round(float64(spent)/1000))
		case spent > 15000:
			return "Shopping's eating up a lot of your budget. Try this: wait 24 hours before buying anything non-essential. Trust me, it helps!"
		default:
			return "Your shopping's under control! Good job!"
		}
	case models.CategoryEntertainment:
		switch {
		case spent > 8000:
			return "Entertainment's getting expensive! Maybe try some free stuff? Parks, free concerts, movie nights at home - still fun, way cheaper!"
		case spent > 5000:
			return "Entertainment spending's a bit much. Look for budget-friendly options - there's tons of fun stuff that doesn't cost a fortune!"
		default:
			return "You're having fun without breaking the bank - love it!"
		}
	case models.CategoryTransport:
		if spent > 10000 {
			return "Transport's costing you a lot! Ever thought about carpooling or taking the bus? Could save you like 40%!"
		}
		return "Transport costs look totally manageable!"
	default:
		if pct > 50 {
			return fmt.Sprintf("Heads up - %s is taking up %d%% of your spending! That's way too much in one place. Let's spread it out a bit!", category, pct)
		}
		return "Your spending's nicely balanced - that's what we like to see!"
	}
}

func food(rows models.QueryResult, day int64) string {
	sum := sumAmount(rows)
	count := len(rows)
	avg := round(div(float64(sum), float64(count)))
	last := rows[0]

	var b strings.Builder
	fmt.Fprintf(&b, "So you've spent %d rupees on food across %d orders or meals this month. ", sum, count)
	fmt.Fprintf(&b, "That works out to about %d rupees per meal. ", avg)
	fmt.Fprintf(&b, "Your last food expense was %d rupees at %s. ", last.Int("amount"), last.String("beneficiary"))
	fmt.Fprintf(&b, "You're spending around %d rupees a day on food. ", round(div(float64(sum), float64(day))))

	switch {
	case avg > 500:
		b.WriteString("Dude, 500+ rupees per meal is pretty steep! Try cooking at home more - you could literally save 60% of this!")
	case sum > 15000:
		b.WriteString("Your food budget's getting up there! Here's an idea: meal prep on weekends. It's a game changer and could save you tons!")
	case sum < 5000:
		b.WriteString("Wow, you're crushing it with your food budget! Way to go!")
	default:
		b.WriteString("Your food spending looks pretty solid! Nothing to worry about here.")
	}
	return b.String()
}

func highest(rows models.QueryResult, day int64) string {
	top := rows[0]
	name, spent := top.String("category"), top.Int("total")
	perDay := div(float64(spent), float64(day))

	var b strings.Builder
	fmt.Fprintf(&b, "Your highest spending category is %s at %d rupees this month. ", name, spent)
	fmt.Fprintf(&b, "That's about %d rupees per day so far. ", round(perDay))

	if projected := round(perDay * 30); float64(projected) > float64(spent)*1.2 {
		fmt.Fprintf(&b, "At this rate, you'll spend around %d rupees on %s by month end. ", projected, name)
	}

	switch {
	case spent > 20000:
		fmt.Fprintf(&b, "This is significantly high. I recommend setting a monthly budget limit of %d rupees to help you save more.", round(float64(spent)*0.8))
	case spent > 10000:
		b.WriteString("Consider tracking daily expenses in this category to identify areas where you can cut back.")
	default:
		b.WriteString("Your spending in this category is well-controlled!")
	}
	return b.String()
}

func recent(rows models.QueryResult) string {
	sum := sumAmount(rows)
	avg := round(div(float64(sum), float64(len(rows))))
	latest := rows[0]

	var b strings.Builder
	fmt.Fprintf(&b, "Okay, so your last %d transactions add up to %d rupees. ", len(rows), sum)
	fmt.Fprintf(&b, "The most recent one was %d rupees to %s for %s. ", latest.Int("amount"), latest.String("beneficiary"), latest.String("category"))

	var bigCount, bigSum int64
	for _, r := range rows {
		if float64(r.Int("amount")) > float64(avg)*1.5 {
			bigCount++
			bigSum += r.Int("amount")
		}
	}
	if bigCount > 0 {
		fmt.Fprintf(&b, "I spotted %d bigger purchases recently - they total %d rupees. ", bigCount, bigSum)
	}

	if latest.Int("amount") > 3000 {
		b.WriteString("That last one's pretty big! Just checking - everything okay? ")
	}

	cats := newTally()
	for _, r := range rows {
		cats.add(r.String("category"), 1)
	}
	top, _ := cats.top()
	fmt.Fprintf(&b, "Looks like you've been spending mostly on %s lately.", top)
	return b.String()
}

func total(rows models.QueryResult, day int64) string {
	r := rows[0]
	sum, count := r.Int("total"), r.Int("count")
	perDay := div(float64(sum), float64(day))
	projected := round(perDay * 30)

	var b strings.Builder
	fmt.Fprintf(&b, "Alright, so your total spending is %d rupees across %d transactions this month. ", sum, count)
	fmt.Fprintf(&b, "That's about %d rupees per transaction on average. ", round(div(float64(sum), float64(count))))
	fmt.Fprintf(&b, "You're spending around %d rupees a day. ", round(perDay))
	fmt.Fprintf(&b, "If you keep this up, you'll hit about %d rupees by month end. ", projected)

	switch {
	case projected > 50000:
		fmt.Fprintf(&b, "That's getting pretty high! Let's try to cut back by %d rupees. Focus on the stuff you don't really need, you know?", round(float64(projected)*0.2))
	case projected > 30000:
		b.WriteString("Not bad! Ever heard of the 50-30-20 rule? 50% for needs, 30% for wants, 20% for savings. Give it a shot!")
	default:
		b.WriteString("Dude, you're doing awesome! Your spending is totally under control!")
	}
	return b.String()
}

// fallback also covers aggregate rows, which carry total instead of amount.
func fallback(rows models.QueryResult, day int64) string {
	var sum int64
	for _, r := range rows {
		if r.Truthy("amount") {
			sum += r.Int("amount")
		} else {
			sum += r.Int("total")
		}
	}
	count := len(rows)
	first := rows[0]

	var b strings.Builder
	fmt.Fprintf(&b, "I found %d transactions totaling %d rupees. ", count, sum)
	fmt.Fprintf(&b, "The average transaction amount is %d rupees. ", round(div(float64(sum), float64(count))))
	if first.Truthy("beneficiary") {
		fmt.Fprintf(&b, "Your most recent transaction was %d rupees to %s. ", first.Int("amount"), first.String("beneficiary"))
	}
	fmt.Fprintf(&b, "You're averaging %d rupees per day this month. ", round(div(float64(sum), float64(day))))

	switch {
	case count > 15:
		b.WriteString("You've been quite active with your spending recently! Consider consolidating purchases to reduce transaction fees.")
	case sum > 20000:
		b.WriteString("Your spending is on the higher side. Review your expenses and identify areas to cut back.")
	default:
		b.WriteString("Your spending pattern looks healthy!")
	}
	return b.String()
}
