package validation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Samson397/spendflow-core/spendflow/money"
)

// CheckAmount parses and bounds-checks a proposed amount. It denies
// non-positive or unparseable input with INVALID_AMOUNT and anything above
// money.MaxTransactionAmount with AMOUNT_TOO_LARGE.
func CheckAmount(v any, cur money.Currency) Result {
	amount := money.Parse(v)

	if amount.Sign() <= 0 {
		return deny(Failure{
			Kind:    KindInvalidAmount,
			Title:   "Invalid Amount",
			Message: "Enter an amount greater than zero.",
		})
	}

	if amount.GreaterThan(money.MaxTransactionAmount) {
		return deny(Failure{
			Kind:      KindAmountTooLarge,
			Title:     "Amount Too Large",
			Message:   fmt.Sprintf("Amounts above %s are not supported.", money.Format(money.MaxTransactionAmount, cur)),
			Requested: amount,
		})
	}

	return Result{Valid: true, Amount: amount}
}

// CheckCardSelection resolves a card reference against the caller-supplied
// snapshot. It denies an empty reference with NO_CARD_SELECTED and a dangling
// one with CARD_NOT_FOUND.
func CheckCardSelection(cardID string, cards []Card) Result {
	return checkCardRole(cardID, cards, "")
}

// checkCardRole is CheckCardSelection with transfer-specific wording. An
// empty role produces the generic messages.
func checkCardRole(cardID string, cards []Card, role string) Result {
	label := "card"
	if role != "" {
		label = role + " account"
	}

	if cardID == "" {
		return deny(Failure{
			Kind:    KindNoCardSelected,
			Title:   "No Card Selected",
			Message: fmt.Sprintf("Select a %s before continuing.", label),
		})
	}

	for i := range cards {
		if cards[i].ID == cardID {
			card := cards[i]

			return Result{Valid: true, Card: &card}
		}
	}

	return deny(Failure{
		Kind:    KindCardNotFound,
		Title:   "Card Not Found",
		Message: fmt.Sprintf("The selected %s could not be found. Refresh your cards and try again.", label),
	})
}

// CheckDebitFunds decides whether a debit card can cover an amount. The
// spendable total is the balance plus the overdraft limit when the facility
// is enabled. The denial names the overdraft contribution when present.
func CheckDebitFunds(card Card, amount decimal.Decimal, cur money.Currency) Result {
	available := card.SpendableFunds()
	if amount.GreaterThan(available) {
		return deny(insufficientFunds(card, amount, available, cur))
	}

	return Result{Valid: true, Amount: amount, Card: &card}
}

// ApplyDebitSpend is the mutation-computing variant of CheckDebitFunds used
// at commit time. On approval it returns the proposed new balance, floored at
// zero once the overdraft is drawn on, and the overdraft portion with a
// non-fatal warning. It shares the admit/deny rule with CheckDebitFunds.
func ApplyDebitSpend(card Card, amount decimal.Decimal, cur money.Currency) Result {
	res := CheckDebitFunds(card, amount, cur)
	if !res.Valid {
		return res
	}

	outcome := &DebitOutcome{NewBalance: card.Balance.Sub(amount), OverdraftUsed: decimal.Zero}

	if outcome.NewBalance.IsNegative() {
		outcome.OverdraftUsed = amount.Sub(card.Balance)
		outcome.NewBalance = decimal.Zero
		res.Warning = fmt.Sprintf("This payment uses %s of your overdraft.", money.Format(outcome.OverdraftUsed, cur))
	}

	res.Debit = outcome

	return res
}

// CheckCreditLimit decides whether a purchase fits within a credit card's
// available credit (limit minus owed balance).
func CheckCreditLimit(card Card, amount decimal.Decimal, cur money.Currency) Result {
	available := card.AvailableCredit()
	if amount.GreaterThan(available) {
		return deny(Failure{
			Kind:  KindCreditLimitExceeded,
			Title: "Credit Limit Reached",
			Message: fmt.Sprintf("This purchase exceeds your available credit of %s by %s.",
				money.Format(available, cur), money.Format(amount.Sub(available), cur)),
			Available:      available,
			Requested:      amount,
			Shortfall:      amount.Sub(available),
			CurrentBalance: card.Balance,
			CreditLimit:    card.Limit,
		})
	}

	return Result{Valid: true, Amount: amount, Card: &card}
}

// ApplyCreditSpend is the mutation-computing variant of CheckCreditLimit. On
// approval it returns the new owed balance and the credit remaining after the
// purchase.
func ApplyCreditSpend(card Card, amount decimal.Decimal, cur money.Currency) Result {
	res := CheckCreditLimit(card, amount, cur)
	if !res.Valid {
		return res
	}

	res.Credit = &CreditOutcome{
		NewBalance:      card.Balance.Add(amount),
		RemainingCredit: card.AvailableCredit().Sub(amount),
	}

	return res
}

// CheckTransaction runs the full admission pipeline for a transaction
// request, short-circuiting on the first denial: amount bounds, card
// selection, then the funds or credit rule for expenses. Income and refund
// requests add funds and are always admissible once the card resolves; the
// refund ceiling is enforced by the refund package at commit time.
func CheckTransaction(req TransactionRequest) Result {
	return runTransaction(req, false)
}

// ApplyTransaction is the commit-time variant of CheckTransaction. It runs
// the same pipeline and computes the balance mutation for every admissible
// request, including income and refunds (debit cards gain funds; credit
// cards reduce the owed balance, possibly into credit in the holder's
// favor).
func ApplyTransaction(req TransactionRequest) Result {
	return runTransaction(req, true)
}

func runTransaction(req TransactionRequest, apply bool) Result {
	res := CheckAmount(req.Amount, req.Currency)
	if !res.Valid {
		return res
	}

	amount := res.Amount

	sel := CheckCardSelection(req.CardID, req.Cards)
	if !sel.Valid {
		return sel
	}

	card := *sel.Card

	if req.Kind == KindIncome || req.Kind == KindRefund {
		out := Result{Valid: true, Amount: amount, Card: &card}
		if apply {
			creditFunds(&out, card, amount)
		}

		return out
	}

	switch card.Type {
	case CardTypeDebit:
		if apply {
			res = ApplyDebitSpend(card, amount, req.Currency)
		} else {
			res = CheckDebitFunds(card, amount, req.Currency)
		}
	case CardTypeCredit:
		if apply {
			res = ApplyCreditSpend(card, amount, req.Currency)
		} else {
			res = CheckCreditLimit(card, amount, req.Currency)
		}
	default:
		return deny(Failure{
			Kind:    KindUnsupportedCardType,
			Title:   "Unsupported Card",
			Message: "This card type can't be used for payments.",
		})
	}

	res.Amount = amount

	return res
}

// CheckTransfer validates a card-to-card transfer: amount bounds, source and
// destination resolution, the self-transfer rule, then the funds check for
// debit sources. Credit sources are intentionally not checked against their
// available credit; a transfer from a credit card is a cash advance and the
// issuer enforces its own limits.
func CheckTransfer(req TransferRequest) Result {
	return runTransfer(req, false)
}

// ApplyTransfer is the commit-time variant of CheckTransfer. It computes the
// new balance for both legs: debit destinations gain funds, credit
// destinations reduce the owed balance, and credit sources grow their owed
// balance.
func ApplyTransfer(req TransferRequest) Result {
	return runTransfer(req, true)
}

func runTransfer(req TransferRequest, apply bool) Result {
	res := CheckAmount(req.Amount, req.Currency)
	if !res.Valid {
		return res
	}

	amount := res.Amount

	fromSel := checkCardRole(req.FromCardID, req.Cards, "source")
	if !fromSel.Valid {
		return fromSel
	}

	toSel := checkCardRole(req.ToCardID, req.Cards, "destination")
	if !toSel.Valid {
		return toSel
	}

	if req.FromCardID == req.ToCardID {
		return deny(Failure{
			Kind:    KindSameAccountTransfer,
			Title:   "Same Account",
			Message: "Source and destination accounts must be different.",
		})
	}

	from := *fromSel.Card
	to := *toSel.Card

	out := Result{Valid: true, Amount: amount, FromCard: &from, ToCard: &to}

	if from.Type == CardTypeDebit {
		funds := CheckDebitFunds(from, amount, req.Currency)
		if !funds.Valid {
			f := *funds.Failure
			f.Message = "Insufficient funds in source account. " + f.Message

			return deny(f)
		}
	}

	if !apply {
		return out
	}

	outcome := &TransferOutcome{OverdraftUsed: decimal.Zero}

	switch from.Type {
	case CardTypeCredit:
		// Cash advance: the owed balance grows.
		outcome.FromNewBalance = from.Balance.Add(amount)
	default:
		outcome.FromNewBalance = from.Balance.Sub(amount)
		if outcome.FromNewBalance.IsNegative() {
			outcome.OverdraftUsed = amount.Sub(from.Balance)
			outcome.FromNewBalance = decimal.Zero
			out.Warning = fmt.Sprintf("This transfer uses %s of your overdraft.", money.Format(outcome.OverdraftUsed, req.Currency))
		}
	}

	if to.Type == CardTypeCredit {
		// Paying a credit card down; may go negative, i.e. credit in the
		// holder's favor.
		outcome.ToNewBalance = to.Balance.Sub(amount)
	} else {
		outcome.ToNewBalance = to.Balance.Add(amount)
	}

	out.Transfer = outcome

	return out
}

// creditFunds records the mutation for money flowing onto a card.
func creditFunds(res *Result, card Card, amount decimal.Decimal) {
	if card.Type == CardTypeCredit {
		newBalance := card.Balance.Sub(amount)
		res.Credit = &CreditOutcome{
			NewBalance:      newBalance,
			RemainingCredit: card.Limit.Sub(newBalance),
		}

		return
	}

	res.Debit = &DebitOutcome{
		NewBalance:    card.Balance.Add(amount),
		OverdraftUsed: decimal.Zero,
	}
}

func insufficientFunds(card Card, amount, available decimal.Decimal, cur money.Currency) Failure {
	msg := fmt.Sprintf("You have %s available. You need %s more.",
		money.Format(available, cur), money.Format(amount.Sub(available), cur))

	if card.OverdraftEnabled && card.OverdraftLimit.Sign() > 0 {
		msg = fmt.Sprintf("You have %s available, including a %s overdraft. You need %s more.",
			money.Format(available, cur), money.Format(card.OverdraftLimit, cur), money.Format(amount.Sub(available), cur))
	}

	return Failure{
		Kind:      KindInsufficientFunds,
		Title:     "Insufficient Funds",
		Message:   msg,
		Available: available,
		Requested: amount,
		Shortfall: amount.Sub(available),
	}
}
