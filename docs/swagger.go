// Package docs PlaceNet Simulator API.
//
// Сервис эпидемической симуляции на графе перемещений между местами (PlaceNet).
// Загружает фиды мест и переходов, прогоняет симуляцию по временным окнам
// и хранит ряд доли заражённых для каждого прогона.
//
// Основные возможности:
// - Синхронный запуск прогона с переопределением параметров
// - Асинхронный запуск через Redis Stream (stream:simulation:run)
// - Ряд доли заражённых и агрегаты по эпохам
// - Список заражённых мест на конец прогона
//
//	Schemes: http, https
//	BasePath: /
//	Version: 1.0.0
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//
// swagger:meta
package docs
