package service

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// NormalizeContact 手机号规范化为 9–10 位纯数字
// 去除空格、- ( ) . 与前导 +；12 位 91 开头或 11 位 0 开头的去掉国家码/长途前缀。
// 结果不合法时 ok=false
func NormalizeContact(raw string) (string, bool) {
	var b strings.Builder
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "+")
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case unicode.IsSpace(r), r == '-', r == '(', r == ')', r == '.':
		default:
			return "", false
		}
	}

	digits := b.String()
	switch {
	case len(digits) == 12 && strings.HasPrefix(digits, "91"):
		digits = digits[2:]
	case len(digits) == 11 && strings.HasPrefix(digits, "0"):
		digits = digits[1:]
	}

	if len(digits) < 9 || len(digits) > 10 {
		return "", false
	}
	return digits, true
}

// NormalizeIDProof 证件号去除所有空白并转大写，空串时 ok=false
func NormalizeIDProof(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		if !unicode.IsSpace(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	if b.Len() == 0 {
		return "", false
	}
	return b.String(), true
}

// NormalizeStudyCode 研究编号 / 作用域统一为去空白大写
func NormalizeStudyCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// isUUID 非 uuid 的 id 不可能存在，直接按未找到处理
func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
