package domain

import (
	"fmt"
	"regexp"
	"strconv"
)

// FirstOrderNumber — номер самого первого заказа в системе.
const FirstOrderNumber = "#00001"

// Номер заказа: решётка и минимум пять цифр. После #99999 разрядность растёт.
var orderNumberPattern = regexp.MustCompile(`^#(\d{5,})$`)

// FormatOrderNumber превращает порядковое значение в человекочитаемый номер.
func FormatOrderNumber(seq int64) string {
	return fmt.Sprintf("#%05d", seq)
}

// ParseOrderNumber извлекает порядковое значение из номера заказа.
func ParseOrderNumber(number string) (int64, error) {
	matches := orderNumberPattern.FindStringSubmatch(number)
	if matches == nil {
		return 0, ErrNumberFormat
	}
	seq, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil {
		return 0, ErrNumberFormat
	}
	return seq, nil
}

// NextOrderNumber возвращает номер, строго больший последнего выданного.
// Пустой last означает, что заказов ещё не было.
func NextOrderNumber(last string) (string, error) {
	if last == "" {
		return FirstOrderNumber, nil
	}
	seq, err := ParseOrderNumber(last)
	if err != nil {
		return "", err
	}
	return FormatOrderNumber(seq + 1), nil
}
