package site

// NavLink is an in-page anchor in the navbar.
type NavLink struct {
	Name string
	Href string
}

// TitledText is a heading with a short description.
type TitledText struct {
	Icon  string
	Title string
	Desc  string
}

// Stage is one node of the architecture pipeline.
type Stage struct {
	Icon  string
	Label string
	Micro string
}

// TechCategory groups technology chips.
type TechCategory struct {
	Icon  string
	Title string
	Chips []string
}

// StandardCard lists the points of one work standard.
type StandardCard struct {
	Title  string
	Points []string
}

const brandName = "SM Agents Consulting"

var navLinks = []NavLink{
	{"Послуги", "#services"},
	{"Процес", "#process"},
	{"Технології", "#tech"},
}

var trustMarkers = []TitledText{
	{"", "Engineering First", "будуємо архітектуру, стійку до помилок — не “тимчасові рішення”."},
	{"", "Privacy by Design", "дані ізольовані. Жодних публічних доступів до внутрішніх систем."},
	{"", "Ownership", "після здачі проєкту ви володієте доступами, конфігураціями та документацією."},
	{"", "Без зайвого шуму", "говоримо мовою бізнесу: результат, ризики, контроль."},
}

var services = []TitledText{
	{"lucide:workflow", "End-to-End Автоматизація (n8n)", "Будуємо ланцюжки дій (workflows): від заявки та документів — до CRM, звітності й повідомлень. Стабільно, з логікою, ретраями та контролем збоїв."},
	{"lucide:messages-square", "Розумні Боти (Telegram / WhatsApp)", "Боти, які акуратно збирають дані, кваліфікують запит і передають менеджеру вже “готовий контекст”. Менше переписок — більше точних дій."},
	{"lucide:zap", "CRM & Sales Ops", "Налаштовуємо CRM так, щоб вона допомагала продавати: маршрутизація лідів, нагадування, статуси, follow-ups, прозорі воронки та дисципліна процесу."},
	{"lucide:server", "Безпечна Інфраструктура", "Розгортаємо середовище, де автоматизації живуть стабільно: бекапи, захищені тунелі, ізольовані адмін-контури, контроль доступів."},
}

var processSteps = []TitledText{
	{"lucide:activity", "Audit (Діагностика)", "знаходимо вузькі місця, де бізнес втрачає час/якість/керованість. Фіксуємо метрику успіху."},
	{"lucide:boxes", "Blueprint (Проєктування)", "показуємо архітектуру рішення: як працює, де зберігаються дані, де контроль і безпека."},
	{"lucide:cpu", "Build (Реалізація)", "інтеграції, логіка, тестування на реальних сценаріях."},
	{"lucide:lock", "Harden & Handover (Запуск)", "фінальна безпека, моніторинг, документація та передача “ключів”."},
}

var pipelineStages = []Stage{
	{"lucide:arrow-down-to-line", "ВХІД", "подія / запит"},
	{"lucide:cpu", "ОБРОБКА", "логіка + AI"},
	{"lucide:database", "ЗБЕРЕЖЕННЯ", "постійна памʼять"},
	{"lucide:arrow-right-circle", "ДІЯ", "інтеграції / CRM"},
	{"lucide:shield-check", "КОНТРОЛЬ", "лог + алерт"},
}

var whyUs = []string{
	"Production-надійність: рішення розраховані на реальні бізнес-сценарії, а не демо.",
	"Швидкість без втрати якості: low-code там, де це ефективно, і чистий код там, де це необхідно.",
	"Конфіденційність: ми розуміємо ціну інформації. Дані й доступи — під вашим контролем.",
}

var techCategories = []TechCategory{
	{"lucide:workflow", "Automation", []string{"n8n", "Webhooks", "Cron / Schedulers", "Queues / Retries", "Error Handling / Fallback", "Idempotency", "Rate Limiting", "Observability"}},
	{"lucide:cpu", "AI Layer", []string{"LLM / AI-шар", "RAG", "Embeddings", "Prompting", "Guardrails", "Function Calling", "Classification"}},
	{"lucide:database", "Data", []string{"PostgreSQL", "NoSQL", "Vector DB", "BigQuery", "Data Validation", "ETL / Pipelines", "Backups", "Audit Logs"}},
	{"lucide:boxes", "Infrastructure", []string{"Docker", "Kubernetes", "CI/CD", "Reverse Proxy", "Tunnels / Access Control", "Secrets Management", "Monitoring / Alerts", "Cloud Functions"}},
	{"lucide:shield-check", "Security & Reliability", []string{"Least Privilege", "RBAC", "Encryption", "Failover", "Runbooks", "SLA-minded Ops", "Incident Response", "Change Control"}},
	{"lucide:messages-square", "Messaging & Integrations", []string{"Telegram / WhatsApp", "REST APIs", "Google Workspace", "CRM Integrations", "Notifications", "Google Analytics", "Google Tag Manager", "BI Dashboards"}},
}

var standards = []StandardCard{
	{"Бриф і рамка задачі", []string{"Короткий бриф (10–12 запитань) → чіткий scope.", "Фіксуємо ціль, ризики та критерії готовності."}},
	{"Продуктове мислення", []string{"Починаємо з процесу та метрик, а не з “інструментів”.", "Впроваджуємо так, щоб команда реально користувалась."}},
	{"Управління та комунікація", []string{"Stakeholder alignment: хто власник, хто виконавець, хто приймає.", "Статус, ризики, наступні кроки — прозоро і регулярно."}},
	{"Документація та передача", []string{"Blueprint, доступи, конфіги, інструкції, runbook.", "Передаємо систему так, щоб ви володіли нею повністю."}},
}
