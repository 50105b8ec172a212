package config

import "github.com/spf13/viper"

// Default values for optional configuration parameters. The message strings
// are the bot's native Russian texts; deployments can override any of them.
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = true

	DefaultGeminiModel = "gemini-3-pro-image-preview"

	DefaultDBPath = "zenpicbot.db"
)

// DefaultEditPrefixes are the recognized edit-phrase prefixes. Matching is a
// case-insensitive prefix check on the trimmed message, nothing smarter.
var DefaultEditPrefixes = []string{
	"отредактируй",
	"измени",
	"переделай",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", DefaultLogJSON)

	v.SetDefault("gemini.model", DefaultGeminiModel)

	v.SetDefault("database.path", DefaultDBPath)

	v.SetDefault("intent.edit_prefixes", DefaultEditPrefixes)

	v.SetDefault("messages.welcome",
		"Привет! Я бот, который генерирует картинки 🖼\n\n"+
			"Просто отправь текст с описанием изображения, и я попробую его нарисовать.\n\n"+
			"Например:\n  кот-астронавт в неоновом городе, фотореализм")
	v.SetDefault("messages.help",
		"Просто напиши текстовый запрос, и я сгенерирую картинку.\n\n"+
			"Примеры:\n  кот-бариста в стиле неонового киберпанка\n  домик в лесу на рассвете, реалистичный стиль\n\n"+
			"Чтобы изменить последнюю картинку, начни сообщение со слова «отредактируй».\n"+
			"Можно также прислать фото с подписью, и я сделаю вариацию.")
	v.SetDefault("messages.generating", "Генерирую картинку…\n\nЗапрос:\n%s")
	v.SetDefault("messages.prompt_too_short", "Слишком короткий запрос, попробуй описать подробнее 🙌")
	v.SetDefault("messages.no_image_to_edit", "Пока нечего редактировать: сначала сгенерируй картинку 🙌")
	v.SetDefault("messages.generation_error", "Не удалось сгенерировать картинку 😔\nОшибка: %s")
	v.SetDefault("messages.no_image_payload", "Не удалось сгенерировать картинку 😔\nМодель не вернула изображение, попробуй переформулировать запрос.")
	v.SetDefault("messages.delivery_error", "Картинка сгенерирована, но не удалось отправить её в чат.\nОшибка: %s")
	v.SetDefault("messages.photo_caption", "Картинка по запросу:\n%s")
	v.SetDefault("messages.operator_caption", "Новая сгенерированная картинка.\nПромпт:\n%s")
	v.SetDefault("messages.variation_prompt", "Сделай художественную вариацию этого изображения")
	v.SetDefault("messages.unauthorized", "Эта команда доступна только оператору.")
	v.SetDefault("messages.stats_header", "Статистика генераций:")
	v.SetDefault("messages.stats_empty", "Генераций пока не было.")
	v.SetDefault("messages.stats_error", "Не удалось получить статистику 😔 Попробуй позже.")
}
