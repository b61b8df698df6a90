package reports

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	csvFlushEvery = 200
	csvBufferSize = 32 * 1024
)

// csvStreamer buffers CSV output and flushes in batches so large
// exports never hold the whole report in memory.
type csvStreamer struct {
	buf          *bufio.Writer
	csv          *csv.Writer
	flushEvery   int
	pendingLines int
}

func newCSVStreamer(w io.Writer) *csvStreamer {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	writer := csv.NewWriter(buf)
	writer.UseCRLF = true
	return &csvStreamer{buf: buf, csv: writer, flushEvery: csvFlushEvery}
}

func (s *csvStreamer) writeRow(row []string) error {
	if err := s.csv.Write(row); err != nil {
		return err
	}
	s.pendingLines++
	if s.flushEvery > 0 && s.pendingLines >= s.flushEvery {
		return s.Flush()
	}
	return nil
}

func (s *csvStreamer) Flush() error {
	s.csv.Flush()
	if err := s.csv.Error(); err != nil {
		return err
	}
	if err := s.buf.Flush(); err != nil {
		return err
	}
	s.pendingLines = 0
	return nil
}

var moneyPrinter = message.NewPrinter(language.English)

func formatMoney(v float64) string {
	return moneyPrinter.Sprintf("%.2f", v)
}

// WriteSalesSummaryCSV streams the daily sales summary.
func WriteSalesSummaryCSV(w io.Writer, rows []DailySales) error {
	s := newCSVStreamer(w)
	if err := s.writeRow([]string{"day", "sale_count", "items_sold", "revenue"}); err != nil {
		return err
	}
	for _, r := range rows {
		row := []string{r.Day, strconv.Itoa(r.SaleCount), strconv.Itoa(r.ItemsSold), formatMoney(r.Revenue)}
		if err := s.writeRow(row); err != nil {
			return err
		}
	}
	return s.Flush()
}

// WriteTopProductsCSV streams the top sellers report.
func WriteTopProductsCSV(w io.Writer, rows []TopProduct) error {
	s := newCSVStreamer(w)
	if err := s.writeRow([]string{"product_id", "name", "sku", "quantity", "revenue"}); err != nil {
		return err
	}
	for _, r := range rows {
		row := []string{
			strconv.FormatInt(r.ProductID, 10), r.Name, r.SKU,
			strconv.Itoa(r.Quantity), formatMoney(r.Revenue),
		}
		if err := s.writeRow(row); err != nil {
			return err
		}
	}
	return s.Flush()
}

// WriteLowStockCSV streams the reorder report.
func WriteLowStockCSV(w io.Writer, rows []LowStockProduct) error {
	s := newCSVStreamer(w)
	if err := s.writeRow([]string{"product_id", "name", "sku", "stock_quantity", "min_stock_level"}); err != nil {
		return err
	}
	for _, r := range rows {
		row := []string{
			strconv.FormatInt(r.ProductID, 10), r.Name, r.SKU,
			strconv.Itoa(r.StockQuantity), strconv.Itoa(r.MinStockLevel),
		}
		if err := s.writeRow(row); err != nil {
			return err
		}
	}
	return s.Flush()
}

func csvFileName(report, from, to string) string {
	if from == "" && to == "" {
		return fmt.Sprintf("%s.csv", report)
	}
	return fmt.Sprintf("%s_%s_%s.csv", report, from, to)
}
