// Package rules builds the rule tree for one billing year in code, per
// spec.md §5's "rules are built in code for each billing year" design —
// there is no rule-tree configuration file format to parse. Build is
// grounded directly on original_source/pik/invoice-flights.py's
// make_rules function: the same tiered fallbacks, youth/course
// discounts, and two annual caps, translated into the combinator tree
// internal/rule exposes.
package rules

import (
	"strconv"
	"time"

	"github.com/smallbiznis/glidebill/internal/billingctx"
	"github.com/smallbiznis/glidebill/internal/filter"
	"github.com/smallbiznis/glidebill/internal/money"
	"github.com/smallbiznis/glidebill/internal/rule"
)

// Ledger accounts a club's chart of accounts would assign per charge
// category, mirroring ACCT_* in the original.
var (
	acctGliderFlight    int64 = 3220
	acctTowplane        int64 = 3130
	acctMemberFlight    int64 = 3150
	acctTowing          int64 = 3170
	acctInstruction     int64 = 3470
	acctEquipmentFee    int64 = 3010
	acctInvoicingSurtax int64 = 3610
)

// Metadata carries the per-run reference data a club's rule tree reads
// while pricing: youth-discount birth dates and course-member IDs.
type Metadata struct {
	BirthDates    map[string]time.Time
	CourseMembers []string
}

// Build constructs the full top-level rule list for year, mirroring
// make_rules(ctx, metadata) 1:1: tiered towplane/motorglider pricing,
// capped glider hourly rates with youth/course discounts, a capped
// equipment fee, passthrough simple events, and an invoicing surtax —
// all wrapped in SetLedgerYearRule(year).
func Build(year int, ctx *billingctx.BillingContext, meta Metadata) []rule.Rule {
	season := filter.Period(money.FullYear(year))
	// Towplane and member-plane flights only bill within the club's motor
	// flying season (Jan 28 - Oct 27); gliders, the equipment fee, and the
	// invoicing surtax use the full-year season above.
	motorSeason := filter.Period(money.MotorSeason(year))

	youth := filter.BirthDate(meta.BirthDates, 25)
	course := filter.MemberList(meta.CourseMembers, filter.Whitelist)

	aircraftK := filter.Aircraft("650")
	aircraftM := filter.Aircraft("787")
	aircraftQ := filter.Aircraft("733")
	aircraftY := filter.Aircraft("883")
	aircraftI := filter.Aircraft("1035")
	aircraftD := filter.Aircraft("952")
	towAircraft := filter.Aircraft("TOW")
	memberAircraft := filter.Aircraft("1037")
	memberAircraftDiscounted := filter.Aircraft("1037-opeale")

	motorplanes := filter.Or(towAircraft, memberAircraft, memberAircraftDiscounted)
	gliders := filter.Or(aircraftK, aircraftM, aircraftQ, aircraftY, aircraftI, aircraftD)
	everyAircraft := filter.Or(motorplanes, gliders)

	invoicingSurtax := filter.InvoicingCharge()
	transferTow := filter.TransferTow()

	minDuration := moneyMinutes(15)
	capID := "glider_hourly_cap_" + strconv.Itoa(year)
	equipmentCapID := "equipment_fee_cap_" + strconv.Itoa(year)

	towRule := rule.NewFirstRule(
		rule.NewMinimumDurationRule(
			rule.NewFlightRule("tow.youth_transfer", rule.Hourly(moneyRate(122, 3, 4)), &acctTowing,
				"Transfer tow, TOW (youth discount), {duration} min",
				towAircraft, motorSeason, transferTow, youth),
			minDuration, "(min 15 min)", motorplanes),
		rule.NewMinimumDurationRule(
			rule.NewFlightRule("tow.youth", rule.Hourly(moneyRate(122, 3, 4)), &acctTowplane,
				"Flight, TOW (youth discount), {duration} min",
				towAircraft, motorSeason, youth),
			minDuration, "(min 15 min)", motorplanes),
		rule.NewMinimumDurationRule(
			rule.NewFlightRule("tow.transfer", rule.Hourly(money.FromCents(12200)), &acctTowing,
				"Transfer tow, TOW, {duration} min",
				towAircraft, motorSeason, transferTow),
			minDuration, "(min 15 min)", motorplanes),
		rule.NewMinimumDurationRule(
			rule.NewFlightRule("tow.normal", rule.Hourly(money.FromCents(12200)), &acctTowplane,
				"Flight, TOW, {duration} min",
				towAircraft, motorSeason),
			minDuration, "(min 15 min)", motorplanes),
	)

	memberPlaneRule := rule.NewFirstRule(
		rule.NewMinimumDurationRule(
			rule.NewFlightRule("memberplane.youth", rule.Hourly(moneyRate(113, 3, 4)), &acctMemberFlight,
				"Flight, 1037 (youth discount), {duration} min",
				memberAircraft, motorSeason, youth),
			minDuration, "(min 15 min)", motorplanes),
		rule.NewMinimumDurationRule(
			rule.NewFlightRule("memberplane.normal", rule.Hourly(money.FromCents(11300)), &acctMemberFlight,
				"Flight, 1037, {duration} min",
				memberAircraft, motorSeason),
			minDuration, "(min 15 min)", motorplanes),
	)

	memberPlaneDiscountedRule := rule.NewFlightRule("memberplane.discounted", rule.Hourly(money.FromCents(6500)), &acctMemberFlight,
		"Flight (instructor discount), {duration} min",
		memberAircraftDiscounted, motorSeason)

	gliderHourlyRule := rule.NewCappedRule(capID, money.FromCents(125000), ctx,
		rule.NewAllRules(
			gliderTierRule("K", aircraftK, 18, season, youth, course),
			gliderTierRule("M", aircraftM, 26, season, youth, course),
			gliderTierRule("Q", aircraftQ, 28, season, youth, course),
			gliderTierRule("I", aircraftI, 29, season, youth, course),
			gliderTierRule("Y", aircraftY, 36, season, youth, course),
			gliderTierRule("D", aircraftD, 44, season, youth, course),
		), false, "annual glider rate cap reached")

	schoolFlightFee := rule.NewFlightRule("school_flight_fee", rule.Hourly(money.FromCents(600)), &acctInstruction,
		"School flight fee, {aircraft}",
		gliders, season, filter.Purpose("KOU"))

	equipmentFeeRule := rule.NewCappedRule(equipmentCapID, money.FromCents(9000), ctx,
		rule.NewAllRules(
			rule.NewFlightRule("equipment_fee.glider", rule.Hourly(money.FromCents(1000)), &acctEquipmentFee,
				"Equipment fee, {aircraft}, {duration} min", gliders, season),
			rule.NewFlightRule("equipment_fee.motorplane", rule.Hourly(money.FromCents(1000)), &acctEquipmentFee,
				"Equipment fee, {aircraft}, {duration} min", motorplanes, season),
		), false, "annual equipment fee cap reached")

	simpleEventRule := rule.NewFirstRule(
		rule.NewSimpleRule("simple.positive", season, filter.PositiveAmount()),
		rule.NewSimpleRule("simple.negative", season, filter.NegativeAmount()),
	)

	invoicingSurtaxRule := rule.NewFlightRule("invoicing_surtax", rule.Hourly(money.FromCents(200)), &acctInvoicingSurtax,
		"Invoicing surtax, {aircraft}, {invoicing_comment}",
		everyAircraft, season, invoicingSurtax)

	all := rule.NewAllRules(
		towRule,
		memberPlaneRule,
		memberPlaneDiscountedRule,
		gliderHourlyRule,
		schoolFlightFee,
		equipmentFeeRule,
		simpleEventRule,
		invoicingSurtaxRule,
	)

	return []rule.Rule{rule.NewSetLedgerYearRule(all, year)}
}

func gliderTierRule(code string, aircraft filter.Predicate, baseRate int64, season, youth, course filter.Predicate) rule.Rule {
	return rule.NewFirstRule(
		rule.NewFlightRule("glider."+code+".youth", rule.Hourly(moneyRate(baseRate, 3, 4)), &acctGliderFlight,
			"Flight (youth discount), {aircraft}, {duration} min",
			aircraft, season, youth),
		rule.NewFlightRule("glider."+code+".course", rule.Hourly(moneyRate(baseRate, 3, 4)), &acctGliderFlight,
			"Flight (course discount), {aircraft}, {duration} min",
			aircraft, season, course),
		rule.NewFlightRule("glider."+code+".normal", rule.Hourly(money.FromCents(baseRate*100)), &acctGliderFlight,
			"Flight, {aircraft}, {duration} min",
			aircraft, season),
	)
}

// moneyRate applies a numerator/denominator discount (e.g. 3/4 for the
// youth and course 75% rate) to a whole-unit price using integer micros
// arithmetic throughout, never binary floating point, rounding half up
// at the final division per spec.md §3/§9.
func moneyRate(whole, numerator, denominator int64) money.Money {
	base := money.FromCents(whole * 100)
	scaled := base.Micros() * numerator
	return money.FromMicros(divRoundHalfUp(scaled, denominator))
}

func divRoundHalfUp(num, den int64) int64 {
	neg := num < 0
	if neg {
		num = -num
	}
	q := num / den
	r := num % den
	if 2*r >= den {
		q++
	}
	if neg {
		q = -q
	}
	return q
}

func moneyMinutes(n int64) money.Money {
	return money.FromMicros(n * money.Micros)
}
