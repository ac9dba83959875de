package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"solbol.backend/internal/domain/entities"
)

const clearScreen = "\033[H\033[2J"

func renderOrders(w io.Writer, orders []*entities.Order, clear bool) {
	if clear {
		_, _ = io.WriteString(w, clearScreen)
	}
	_, _ = fmt.Fprintf(w, "%d orders, updated %s\n\n", len(orders), time.Now().Format("15:04:05"))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ORDER\tTYPE\tSEND\tRECEIVE\tRATE\tSTATUS\tRECEIVER\tCREATED")
	for _, o := range orders {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			o.OrderNumber,
			o.OrderType,
			o.AmountSend.StringFixed(2),
			o.AmountReceive.StringFixed(2),
			o.ExchangeRate.String(),
			o.Status,
			o.ReceiverName,
			o.CreatedAt.Local().Format("2006-01-02 15:04"),
		)
	}
	_ = tw.Flush()
}
