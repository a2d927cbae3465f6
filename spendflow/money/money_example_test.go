package money_test

import (
	"fmt"

	"github.com/Samson397/spendflow-core/spendflow/money"
)

func ExampleParse() {
	fmt.Println(money.Parse("£1,234.56"))
	fmt.Println(money.Parse("-£12.50"))
	fmt.Println(money.Parse("abc"))

	// Output:
	// 1234.56
	// -12.5
	// 0
}

func ExampleFormat() {
	amount := money.Parse("1234.5")
	fmt.Println(money.Format(amount, money.CurrencyFor("GBP")))

	// Output:
	// £1,234.50
}
