package config

import "time"

// Default values for configuration.
const (
	DefaultLogLevel = "info"
	DefaultDBPath   = "relay.db"

	DefaultMailProvider       = "smtp"
	DefaultMailTimeout        = 30 * time.Second
	DefaultBreakerMaxFailures = 3
	DefaultBreakerOpenTimeout = time.Minute

	DefaultCountry            = "RU"
	DefaultReferenceUTCOffset = 3 // received_at is stored in Moscow time
	DefaultDedupWindow        = 5 * time.Minute
	DefaultEventTimeout       = 2 * time.Minute
	DefaultTaxiMarker         = "такси"

	DefaultMonitorAddr = ":9090"

	// TaskSQLMaintenance is the scheduler key of the VACUUM task.
	TaskSQLMaintenance = "sql_maintenance"
)

// DefaultCountries is used when the configuration defines no countries.
// Clock strings are Moscow time.
var DefaultCountries = map[string]CountryConfig{
	"RU": {TimeBegin: "09:00:00", TimeClose: "18:00:00", TimezoneDelta: []int{0}, Languages: []string{"ru"}, CategorySplit: true},
	"BY": {TimeBegin: "09:00:00", TimeClose: "18:00:00", TimezoneDelta: []int{0}, Languages: []string{"ru"}},
	"KZ": {TimeBegin: "07:00:00", TimeClose: "16:00:00", TimezoneDelta: []int{2}, Languages: []string{"kk", "ru"}},
	"UZ": {TimeBegin: "07:00:00", TimeClose: "16:00:00", TimezoneDelta: []int{2}, Languages: []string{"uz", "ru"}},
	"KG": {TimeBegin: "06:00:00", TimeClose: "15:00:00", TimezoneDelta: []int{3}, Languages: []string{"ky", "ru"}},
	"AM": {TimeBegin: "08:00:00", TimeClose: "17:00:00", TimezoneDelta: []int{1}, Languages: []string{"hy", "ru"}},
	// Moldova is one hour behind Moscow in winter and level with it in summer.
	"MD": {TimeBegin: "10:00:00", TimeClose: "19:00:00", TimezoneDelta: []int{-1, 0}, SeasonalOffset: true, Languages: []string{"ro", "ru"}},
}

// DefaultReplies is used when the configuration defines no reply templates.
var DefaultReplies = map[string]string{
	"ru":        "Здравствуйте! Сейчас нерабочее время. Мы работаем с {open} до {close} по местному времени и ответим вам в рабочее время.",
	"ru_taxi":   "Здравствуйте! Поддержка по вопросам такси работает с {open} до {close} по московскому времени. Мы ответим вам в рабочее время.",
	"ru_retail": "Здравствуйте! Поддержка по вопросам товаров работает с {open} до {close} по московскому времени. Мы ответим вам в рабочее время.",
	"kk":        "Сәлеметсіз бе! Қазір жұмыс уақыты емес. Біз {open} бастап {close} дейін жұмыс істейміз және жұмыс уақытында жауап береміз.",
	"uz":        "Assalomu alaykum! Hozir ish vaqti emas. Biz {open} dan {close} gacha ishlaymiz va ish vaqtida javob beramiz.",
	"ky":        "Саламатсызбы! Азыр иш убактысы эмес. Биз {open} баштап {close} чейин иштейбиз жана иш убактысында жооп беребиз.",
	"hy":        "Բարև Ձեզ։ Այժմ ոչ աշխատանքային ժամ է։ Մենք աշխատում ենք {open}-ից {close}-ը և կպատասխանենք աշխատանքային ժամերին։",
	"ro":        "Bună ziua! Acum suntem în afara programului de lucru. Lucrăm între {open} și {close} și vă vom răspunde în timpul programului.",
}

// DefaultPostscripts is used when the configuration defines no postscripts.
var DefaultPostscripts = map[string]string{
	"RU":                    "\n\nЧтобы ответить пользователю, перейдите в Telegram-чат и ответьте на его сообщение. Не отвечайте на это письмо.",
	PostscriptInternational: "\n\nОтветьте пользователю в Telegram-чате на языке его страны. Не отвечайте на это письмо.",
}

// DefaultTasks is used when the configuration defines no scheduler tasks.
var DefaultTasks = map[string]TaskConfig{
	TaskSQLMaintenance: {Enabled: true, Schedule: "0 0 4 * * 0"},
}

// DefaultMessages holds the default bot texts.
var DefaultMessages = MessagesConfig{
	Start:         "Привет! Я бот.",
	NotAuthorized: "Команда доступна только администратору.",
	StatusHeader:  "Отложенные сообщения по странам:",
	StatusEmpty:   "Отложенных сообщений нет.",
}
