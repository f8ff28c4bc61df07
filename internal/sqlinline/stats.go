package sqlinline

const QStatsSummary = `--sql 2a6d90cb-48e7-4f13-b5d2-07c3a1e86f94
select
  (select count(*) from designs)                                               as total_designs,
  (select count(*) from design_assets where kind = 'RENDER')                   as total_renders,
  (select count(*) from designs where created_at >= now() - interval '24 hours') as designs_last_24h;
`

const QStatsByCountry = `--sql b31f7e25-9a08-4cd6-81b4-d4e60c29a7f8
select country_code, count(*)
from designs
group by country_code
order by count(*) desc, country_code asc;
`
